// Package segment downloads the segments of a track with a bounded pool of
// workers.
package segment

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/logger"
	"github.com/NamanBalaji/streamdl/internal/plan"
	httpPkg "github.com/NamanBalaji/streamdl/pkg/http"
)

// Getter streams a remote resource into w.
type Getter interface {
	Fetch(ctx context.Context, url string, w io.Writer) (int64, error)
}

// Fetcher performs a single download attempt of one segment.
type Fetcher struct {
	client  Getter
	timeout time.Duration
}

// NewFetcher creates a Fetcher. A positive timeout bounds every attempt.
func NewFetcher(client Getter, timeout time.Duration) *Fetcher {
	return &Fetcher{client: client, timeout: timeout}
}

// Fetch downloads seg to seg.File. The body is written to a sibling ".part"
// file that only replaces seg.File once the transfer completed. Transfer
// failures are network errors, retryable only when the client classified
// them as transient.
func (f *Fetcher) Fetch(ctx context.Context, seg *plan.Segment) error {
	log := logger.FromContext(ctx)

	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	part := seg.File + ".part"

	file, err := os.Create(part)
	if err != nil {
		return fmt.Errorf("create %s: %w", part, err)
	}

	n, err := f.client.Fetch(ctx, seg.URL, file)
	if err != nil {
		err = pipelineErrors.NewNetworkError(err, pipelineErrors.StageDownload, seg.URL, httpPkg.IsTransient(err))
	}

	closeErr := file.Close()
	if err == nil && closeErr != nil {
		err = fmt.Errorf("close %s: %w", part, closeErr)
	}

	if err != nil {
		if rmErr := os.Remove(part); rmErr != nil && !os.IsNotExist(rmErr) {
			log.Warnf("Failed to remove %s: %v", part, rmErr)
		}

		return err
	}

	if err := os.Rename(part, seg.File); err != nil {
		return fmt.Errorf("rename %s: %w", part, err)
	}

	log.Debugf("Fetched %s (%d bytes)", seg.Name, n)

	return nil
}
