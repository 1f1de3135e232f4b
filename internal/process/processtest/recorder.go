// Package processtest provides a scripted process.Runner for tests.
package processtest

import (
	"context"
	"sync"

	"github.com/NamanBalaji/streamdl/internal/event"
	"github.com/NamanBalaji/streamdl/internal/process"
)

// Recorder records every command it is asked to run. OnRun, when set, is
// called instead of spawning anything and may create output files.
type Recorder struct {
	mu       sync.Mutex
	commands []process.Command

	// Missing lists binary paths reported as unavailable.
	Missing map[string]bool
	OnRun   func(cmd process.Command) (int, error)
}

func (r *Recorder) Run(ctx context.Context, cmd process.Command, sink event.Sink) (int, error) {
	r.mu.Lock()
	r.commands = append(r.commands, cmd)
	r.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return -1, err
	}

	sink = event.Or(sink)
	sink.Handle(event.Event{Kind: event.ProcessSpawn, Command: cmd.Path, Args: cmd.Args, Dir: cmd.Dir})

	code := 0
	if r.OnRun != nil {
		var err error
		code, err = r.OnRun(cmd)
		if err != nil {
			sink.Handle(event.Event{Kind: event.ProcessError, Command: cmd.Path, Args: cmd.Args, Err: err})
			return -1, err
		}
	}

	sink.Handle(event.Event{Kind: event.ProcessClose, Command: cmd.Path, Args: cmd.Args, Dir: cmd.Dir, Code: code})

	return code, nil
}

func (r *Recorder) Available(path string) bool {
	return path != "" && !r.Missing[path]
}

// Commands returns a copy of every recorded command.
func (r *Recorder) Commands() []process.Command {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]process.Command, len(r.commands))
	copy(out, r.commands)

	return out
}

// OutputOf returns the argument following "-o" or, failing that, the
// argument before a trailing "-y", which is where ffmpeg and gpac commands
// built by this module place their output file.
func OutputOf(cmd process.Command) string {
	args := cmd.Args
	for i := 0; i+1 < len(args); i++ {
		if args[i] == "-o" {
			return args[i+1]
		}
	}

	if n := len(args); n >= 2 && args[n-1] == "-y" {
		return args[n-2]
	}

	return ""
}
