package process

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
	"sync"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/logger"
)

// Command is a single external toolchain invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
}

func (c Command) String() string {
	return strings.TrimSpace(c.Path + " " + strings.Join(c.Args, " "))
}

// Runner executes external commands. Run returns the exit code; err is
// non-nil only when the process could not be started or waited on.
type Runner interface {
	Run(ctx context.Context, cmd Command, sink event.Sink) (int, error)
	Available(path string) bool
}

// ExecRunner runs commands with os/exec.
type ExecRunner struct{}

// NewExecRunner creates a Runner backed by os/exec.
func NewExecRunner() *ExecRunner {
	return &ExecRunner{}
}

// Available reports whether path resolves to an executable, either directly
// or through PATH.
func (r *ExecRunner) Available(path string) bool {
	if path == "" {
		return false
	}

	_, err := exec.LookPath(path)

	return err == nil
}

func (r *ExecRunner) Run(ctx context.Context, c Command, sink event.Sink) (int, error) {
	log := logger.FromContext(ctx)

	sink = event.Or(sink)

	log.Group("Spawn Child Process...")
	defer log.GroupEnd()
	log.Infof("Command: %s", c)

	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir

	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return -1, r.fail(log, sink, c, err)
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return -1, r.fail(log, sink, c, err)
	}

	if err := cmd.Start(); err != nil {
		return -1, r.fail(log, sink, c, err)
	}

	sink.Handle(event.Event{Kind: event.ProcessSpawn, Command: c.Path, Args: c.Args, Dir: c.Dir})

	var wg sync.WaitGroup
	wg.Add(2)

	go func() {
		defer wg.Done()
		consumeOutput(stdout, func(b []byte) {
			sink.Handle(event.Event{Kind: event.ProcessStdout, Command: c.Path, Args: c.Args, Dir: c.Dir, Data: b})
		})
	}()

	go func() {
		defer wg.Done()
		consumeOutput(stderr, func(b []byte) {
			sink.Handle(event.Event{Kind: event.ProcessStderr, Command: c.Path, Args: c.Args, Dir: c.Dir, Data: b})
		})
	}()

	wg.Wait()
	waitErr := cmd.Wait()

	var exitErr *exec.ExitError
	if waitErr != nil && !errors.As(waitErr, &exitErr) {
		return -1, r.fail(log, sink, c, waitErr)
	}

	if ctxErr := ctx.Err(); ctxErr != nil {
		return -1, r.fail(log, sink, c, ctxErr)
	}

	code := cmd.ProcessState.ExitCode()
	log.Infof("Code: %d", code)
	sink.Handle(event.Event{Kind: event.ProcessClose, Command: c.Path, Args: c.Args, Dir: c.Dir, Code: code})

	return code, nil
}

func (r *ExecRunner) fail(log *logger.Logger, sink event.Sink, c Command, err error) error {
	log.Errorf("Failed: %v", err)
	sink.Handle(event.Event{Kind: event.ProcessError, Command: c.Path, Args: c.Args, Dir: c.Dir, Err: err})

	return fmt.Errorf("run %s: %w", c.Path, err)
}

const maxLineSize = 1024 * 1024

func consumeOutput(r io.Reader, emit func([]byte)) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineSize)
	scanner.Split(scanOutputLines)

	for scanner.Scan() {
		if len(scanner.Bytes()) == 0 {
			continue
		}

		line := make([]byte, len(scanner.Bytes()))
		copy(line, scanner.Bytes())
		emit(line)
	}

	if err := scanner.Err(); err != nil {
		logger.Debugf("process output error: %v", err)
		// The child blocks on a full pipe unless it is drained.
		_, _ = io.Copy(io.Discard, r)
	}
}

// scanOutputLines splits on '\n' or '\r', since ffmpeg redraws its progress
// line with carriage returns. A run longer than maxLineSize is emitted in
// pieces.
func scanOutputLines(data []byte, atEOF bool) (int, []byte, error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}

	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		return i + 1, data[:i], nil
	}

	if atEOF || len(data) >= maxLineSize {
		return len(data), data, nil
	}

	return 0, nil, nil
}

// RunChecked runs c and converts a spawn failure or a non-zero exit code
// into a process error for stage.
func RunChecked(ctx context.Context, r Runner, c Command, sink event.Sink, stage pipelineErrors.Stage) error {
	code, err := r.Run(ctx, c, sink)
	if err != nil {
		if ctx.Err() != nil {
			return pipelineErrors.NewContextError(err, stage, c.Path)
		}

		return pipelineErrors.NewProcessError(err, stage, c.Path, code)
	}

	if code != 0 {
		return pipelineErrors.NewProcessError(pipelineErrors.ErrProcessExit, stage, c.Path, code)
	}

	return nil
}
