package segment

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
)

// ProgressFunc is called after each completed segment with the number of
// segments completed so far in this run. It may be called concurrently.
type ProgressFunc func(done, total int)

// Pool downloads a track's segments with a fixed number of workers. Workers
// are not assigned segments; each one claims the first waiting segment until
// none are left.
type Pool struct {
	fetcher    *Fetcher
	retry      RetryPolicy
	workers    int
	onProgress ProgressFunc
}

func NewPool(fetcher *Fetcher, workers int, retry RetryPolicy, onProgress ProgressFunc) *Pool {
	if workers < 1 {
		workers = 1
	}

	return &Pool{
		fetcher:    fetcher,
		retry:      retry,
		workers:    workers,
		onProgress: onProgress,
	}
}

// Download runs the pool over segments and returns once every segment is
// Downloaded, the retry policy gave up on one, or ctx is done. A
// non-retryable network failure, such as a 404, stops the pool on the first
// attempt.
func (p *Pool) Download(ctx context.Context, segments []*plan.Segment) error {
	attempts := make([]atomic.Int32, len(segments))
	total := len(segments)

	var done atomic.Int32

	g, groupCtx := errgroup.WithContext(ctx)

	for w := 0; w < p.workers; w++ {
		g.Go(func() error {
			return p.work(groupCtx, segments, attempts, &done, total)
		})
	}

	return g.Wait()
}

func (p *Pool) work(ctx context.Context, segments []*plan.Segment, attempts []atomic.Int32, done *atomic.Int32, total int) error {
	log := logger.FromContext(ctx)

	for {
		idx, seg := claim(segments)
		if seg == nil {
			return nil
		}

		err := p.fetcher.Fetch(ctx, seg)
		if err == nil {
			seg.Complete()

			if p.onProgress != nil {
				p.onProgress(int(done.Add(1)), total)
			}

			continue
		}

		seg.Release()

		if ctxErr := ctx.Err(); ctxErr != nil {
			return pipelineErrors.NewContextError(ctxErr, pipelineErrors.StageDownload, seg.Name)
		}

		if pipelineErrors.IsNetworkError(err) && !pipelineErrors.IsRetryable(err) {
			log.Errorf("%s download failed permanently: %v", seg.Name, err)
			return err
		}

		n := int(attempts[idx].Add(1))
		if p.retry.Exhausted(n) {
			log.Errorf("%s download failed after %d attempts: %v", seg.Name, n, err)
			return pipelineErrors.NewNetworkError(
				fmt.Errorf("%w: %w", pipelineErrors.ErrRetriesExhausted, err),
				pipelineErrors.StageDownload, seg.URL, false)
		}

		log.Errorf("%s download failed: %v, retry...", seg.Name, err)

		if err := sleep(ctx, p.retry.Backoff(n)); err != nil {
			return pipelineErrors.NewContextError(err, pipelineErrors.StageDownload, seg.Name)
		}
	}
}

// claim atomically takes the first waiting segment.
func claim(segments []*plan.Segment) (int, *plan.Segment) {
	for i, s := range segments {
		if s.Claim() {
			return i, s
		}
	}

	return -1, nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}

	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsExhausted reports whether err means a segment ran out of attempts.
func IsExhausted(err error) bool {
	return errors.Is(err, pipelineErrors.ErrRetriesExhausted)
}
