package segment_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pipelineErrors "github.com/NamanBalaji/streamdl/internal/errors"
	"github.com/NamanBalaji/streamdl/internal/plan"
	"github.com/NamanBalaji/streamdl/internal/segment"
	"github.com/NamanBalaji/streamdl/internal/status"
	httpPkg "github.com/NamanBalaji/streamdl/pkg/http"
)

func body(i int) string {
	return strings.Repeat(strconv.Itoa(i), 100+i)
}

// newServer serves /seg/<i> with body(i). failFirst makes the first request
// for every segment return 500.
func newServer(t *testing.T, failFirst bool) (*httptest.Server, *sync.Map) {
	t.Helper()

	hits := &sync.Map{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		i, err := strconv.Atoi(strings.TrimPrefix(r.URL.Path, "/seg/"))
		if err != nil {
			w.WriteHeader(http.StatusNotFound)
			return
		}

		n, _ := hits.LoadOrStore(i, new(atomic.Int32))
		if n.(*atomic.Int32).Add(1) == 1 && failFirst {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}

		_, _ = w.Write([]byte(body(i)))
	}))
	t.Cleanup(server.Close)

	return server, hits
}

func makeSegments(dir, baseURL string, n int) []*plan.Segment {
	segments := make([]*plan.Segment, n)
	for i := range segments {
		name := fmt.Sprintf("video0_Segment%d", i)
		segments[i] = &plan.Segment{
			URL:  fmt.Sprintf("%s/seg/%d", baseURL, i),
			Name: name,
			Ext:  ".m4s",
			File: filepath.Join(dir, name+".m4s"),
		}
	}

	return segments
}

func fastRetry() segment.RetryPolicy {
	return segment.RetryPolicy{Delay: time.Millisecond, MaxDelay: 5 * time.Millisecond}
}

func TestPoolDownloadsEverySegment(t *testing.T) {
	server, _ := newServer(t, false)

	for _, workers := range []int{1, 2, 5, 20} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			dir := t.TempDir()
			segments := makeSegments(dir, server.URL, 10)

			var (
				mu    sync.Mutex
				calls int
				last  int
			)
			progress := func(done, total int) {
				mu.Lock()
				defer mu.Unlock()
				calls++
				last = max(last, done)
				assert.Equal(t, 10, total)
			}

			pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), time.Second), workers, fastRetry(), progress)
			require.NoError(t, pool.Download(context.Background(), segments))

			for i, s := range segments {
				assert.Equal(t, status.Downloaded, s.State(), s.Name)

				b, err := os.ReadFile(s.File)
				require.NoError(t, err)
				assert.Equal(t, body(i), string(b))
			}

			assert.Equal(t, 10, calls)
			assert.Equal(t, 10, last)

			parts, _ := filepath.Glob(filepath.Join(dir, "*.part"))
			assert.Empty(t, parts)
		})
	}
}

func TestPoolRetriesFailures(t *testing.T) {
	server, hits := newServer(t, true)
	segments := makeSegments(t.TempDir(), server.URL, 4)

	pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), time.Second), 2, fastRetry(), nil)
	require.NoError(t, pool.Download(context.Background(), segments))

	for i, s := range segments {
		assert.Equal(t, status.Downloaded, s.State())

		n, ok := hits.Load(i)
		require.True(t, ok)
		assert.Equal(t, int32(2), n.(*atomic.Int32).Load())
	}
}

func TestPoolGivesUpAfterMaxAttempts(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	segments := makeSegments(t.TempDir(), server.URL, 3)
	retry := fastRetry()
	retry.MaxAttempts = 2

	pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), time.Second), 1, retry, nil)
	err := pool.Download(context.Background(), segments)

	require.Error(t, err)
	assert.True(t, segment.IsExhausted(err))
	assert.True(t, pipelineErrors.IsNetworkError(err))

	for _, s := range segments {
		assert.NotEqual(t, status.Downloading, s.State())
	}
}

func TestPoolFailsFastOnPermanentStatus(t *testing.T) {
	testCases := []struct {
		name     string
		status   int
		expected error
	}{
		{name: "not found", status: http.StatusNotFound, expected: httpPkg.ErrResourceNotFound},
		{name: "forbidden", status: http.StatusForbidden, expected: httpPkg.ErrAccessDenied},
		{name: "gone", status: http.StatusGone, expected: httpPkg.ErrGone},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var hits atomic.Int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				hits.Add(1)
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			segments := makeSegments(t.TempDir(), server.URL, 1)

			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			// MaxAttempts 0 retries transient failures forever.
			pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), time.Second), 1, fastRetry(), nil)
			err := pool.Download(ctx, segments)

			require.Error(t, err)
			assert.ErrorIs(t, err, tc.expected)
			assert.True(t, pipelineErrors.IsNetworkError(err))
			assert.False(t, pipelineErrors.IsRetryable(err))
			assert.False(t, segment.IsExhausted(err))
			assert.NoError(t, ctx.Err())
			assert.Equal(t, int32(1), hits.Load())
			assert.Equal(t, status.Waiting, segments[0].State())
		})
	}
}

func TestFetcherMarksTransientFailuresRetryable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	seg := makeSegments(t.TempDir(), server.URL, 1)[0]
	require.True(t, seg.Claim())

	err := segment.NewFetcher(httpPkg.NewClient(nil), time.Second).Fetch(context.Background(), seg)

	require.Error(t, err)
	assert.ErrorIs(t, err, httpPkg.ErrServerProblem)
	assert.True(t, pipelineErrors.IsRetryable(err))

	_, statErr := os.Stat(seg.File + ".part")
	assert.True(t, os.IsNotExist(statErr))
}

func TestPoolStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	segments := makeSegments(t.TempDir(), server.URL, 2)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), time.Second), 2, fastRetry(), nil)
	err := pool.Download(ctx, segments)

	require.Error(t, err)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestPoolEmpty(t *testing.T) {
	pool := segment.NewPool(segment.NewFetcher(httpPkg.NewClient(nil), 0), 3, fastRetry(), nil)
	assert.NoError(t, pool.Download(context.Background(), nil))
}

func TestBackoff(t *testing.T) {
	p := segment.RetryPolicy{Delay: 100 * time.Millisecond, MaxDelay: 300 * time.Millisecond}

	assert.Zero(t, p.Backoff(0))

	first := p.Backoff(1)
	assert.GreaterOrEqual(t, first, 90*time.Millisecond)
	assert.LessOrEqual(t, first, 110*time.Millisecond)

	second := p.Backoff(2)
	assert.GreaterOrEqual(t, second, 180*time.Millisecond)
	assert.LessOrEqual(t, second, 220*time.Millisecond)

	assert.Equal(t, 300*time.Millisecond, p.Backoff(10))
	assert.Equal(t, 300*time.Millisecond, p.Backoff(100))
}

func TestExhausted(t *testing.T) {
	assert.False(t, segment.RetryPolicy{}.Exhausted(1000))
	assert.False(t, segment.RetryPolicy{MaxAttempts: 3}.Exhausted(2))
	assert.True(t, segment.RetryPolicy{MaxAttempts: 3}.Exhausted(3))
}
