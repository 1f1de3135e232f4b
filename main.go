package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"sync"
	"syscall"

	"github.com/adrg/xdg"
	"github.com/google/uuid"

	"github.com/NamanBalaji/streamdl/internal/config"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/repository"
	"github.com/NamanBalaji/streamdl/internal/tui/components"
	"github.com/NamanBalaji/streamdl/internal/tui/styles"
	"github.com/NamanBalaji/streamdl/pkg/streamdl"
)

const termWidth = 80

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, styles.ErrorStyle.Render(err.Error()))
		os.Exit(1)
	}
}

func run() error {
	debug := flag.Bool("debug", false, "Write debug logs to the state directory")
	verbose := flag.Bool("verbose", false, "Write logs to stderr")
	quality := flag.String("quality", "", "Video quality: highest, medium or lowest")
	concurrency := flag.Int("concurrency", 0, "Concurrent segment downloads per track")
	keys := flag.String("keys", "", "Decryption keys, comma separated, as key or kid:key")
	output := flag.String("o", "video.mp4", "Output file")
	outDir := flag.String("out-dir", "", "Directory for bare output file names")
	baseURL := flag.String("base-url", "", "Base URL for relative segments of a manifest read from a file")
	ffmpegPath := flag.String("ffmpeg", "", "Path to ffmpeg")
	gpacPath := flag.String("gpac", "", "Path to gpac")
	noClean := flag.Bool("no-clean", false, "Keep temporary files")
	parseOnly := flag.Bool("parse", false, "Print the download plan and exit")
	history := flag.String("history", "", `Print previous downloads ("all") or the one with the given id, and exit`)
	forget := flag.String("forget", "", "Remove the download with the given id from the history and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: %s [flags] <manifest url or file>\n", filepath.Base(os.Args[0]))
		flag.PrintDefaults()
	}
	flag.Parse()

	err := logger.InitLogging(*debug, filepath.Join(xdg.StateHome, "streamdl", "streamdl.log"))
	if err != nil {
		return fmt.Errorf("initialize logging: %w", err)
	}
	defer logger.Close()

	if *verbose {
		logger.SetOutput(os.Stderr)
	}

	cfg, err := config.GetConfig()
	if err != nil {
		return fmt.Errorf("read config %s: %w", config.Path(), err)
	}

	cfg.Quality = orDefault(*quality, cfg.Quality)
	cfg.OutDir = orDefault(*outDir, cfg.OutDir)
	cfg.FFmpegPath = orDefault(*ffmpegPath, cfg.FFmpegPath)
	cfg.GPACPath = orDefault(*gpacPath, cfg.GPACPath)

	if *concurrency > 0 {
		cfg.Concurrency = *concurrency
	}

	if *noClean {
		clean := false
		cfg.Clean = &clean
	}

	repo, err := repository.NewBboltRepository(cfg.HistoryPath)
	if err != nil {
		logger.Warnf("History disabled: %v", err)
		repo = nil
	} else {
		defer func() {
			if err := repo.Close(); err != nil {
				logger.Errorf("Error closing repository: %v", err)
			}
		}()
	}

	if *history != "" || *forget != "" {
		if repo == nil {
			return fmt.Errorf("history unavailable at %s", cfg.HistoryPath)
		}

		if *forget != "" {
			return forgetRecord(repo, *forget)
		}

		return printHistory(repo, *history)
	}

	if flag.NArg() != 1 {
		flag.Usage()
		return errors.New("expected exactly one manifest url or file")
	}

	src, err := readSource(flag.Arg(0), *baseURL)
	if err != nil {
		return err
	}

	src.Keys = plan.SplitKeys(*keys)

	opts := []streamdl.Option{streamdl.WithProgress(newProgressPrinter().print)}
	if repo != nil {
		opts = append(opts, streamdl.WithRepository(repo))
	}

	d, err := streamdl.New(cfg, opts...)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if *parseOnly {
		p, err := d.Parse(ctx, src, *output)
		if err != nil {
			return err
		}

		fmt.Println(components.RenderPlan(p, termWidth))

		return nil
	}

	p, err := d.Download(ctx, src, *output, nil)
	if err != nil {
		return err
	}

	fmt.Println(styles.SuccessStyle.Render("Saved " + p.File))

	return nil
}

// printHistory prints every journal record, or only the one with id when id
// is not "all".
func printHistory(repo repository.Repository, id string) error {
	if id == "all" {
		records, err := repo.FindAll()
		if err != nil {
			return err
		}

		fmt.Println(components.RenderHistory(records, termWidth))

		return nil
	}

	recordID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid history id %q: %w", id, err)
	}

	record, err := repo.Find(recordID)
	if err != nil {
		return err
	}

	fmt.Println(components.RenderRecord(record, termWidth))

	return nil
}

func forgetRecord(repo repository.Repository, id string) error {
	recordID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid history id %q: %w", id, err)
	}

	if err := repo.Delete(recordID); err != nil {
		return err
	}

	fmt.Println(styles.SuccessStyle.Render("Removed " + id))

	return nil
}

// readSource treats arg as a manifest URL, or as a file holding the manifest
// text when such a file exists.
func readSource(arg, baseURL string) (plan.Source, error) {
	if _, err := os.Stat(arg); err != nil {
		return streamdl.ParseSource(arg), nil
	}

	b, err := os.ReadFile(arg)
	if err != nil {
		return plan.Source{}, err
	}

	return plan.Source{URL: baseURL, Text: string(b)}, nil
}

type progressPrinter struct {
	mu   sync.Mutex
	last map[*plan.Track]int
}

func newProgressPrinter() *progressPrinter {
	return &progressPrinter{last: make(map[*plan.Track]int)}
}

// print redraws a track every tenth of its segments and once it completes.
func (p *progressPrinter) print(t *plan.Track, done, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	step := max(total/10, 1)
	if done != total && done-p.last[t] < step {
		return
	}

	p.last[t] = done
	fmt.Println(components.TrackItem(t, done, total, termWidth))
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}

	return v
}
