package http_test

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpmod "github.com/NamanBalaji/streamdl/pkg/http"
)

func TestFetchStreamsBody(t *testing.T) {
	var gotUA, gotReferer string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotReferer = r.Header.Get("Referer")
		_, _ = w.Write([]byte("segment-bytes"))
	}))
	t.Cleanup(server.Close)

	client := httpmod.NewClient(map[string]string{"Referer": "https://example.com"})

	var buf bytes.Buffer
	n, err := client.Fetch(context.Background(), server.URL+"/seg1.m4s", &buf)
	require.NoError(t, err)
	assert.Equal(t, int64(len("segment-bytes")), n)
	assert.Equal(t, "segment-bytes", buf.String())
	assert.Equal(t, httpmod.DefaultUserAgent, gotUA)
	assert.Equal(t, "https://example.com", gotReferer)
}

func TestFetchClassifiesStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := httpmod.NewClient(nil)

	var buf bytes.Buffer
	_, err := client.Fetch(context.Background(), server.URL, &buf)
	if !errors.Is(err, httpmod.ErrServerProblem) {
		t.Fatalf("Fetch() error = %v; want %v", err, httpmod.ErrServerProblem)
	}
	assert.True(t, httpmod.IsTransient(err))
}

func TestFetchText(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("#EXTM3U\n"))
	}))
	t.Cleanup(server.Close)

	text, err := httpmod.NewClient(nil).FetchText(context.Background(), server.URL)
	require.NoError(t, err)
	assert.Equal(t, "#EXTM3U\n", text)
}

func TestGetInvalidURL(t *testing.T) {
	_, err := httpmod.NewClient(nil).Get(context.Background(), "://bad")
	if !errors.Is(err, httpmod.ErrRequestCreation) {
		t.Fatalf("Get() error = %v; want %v", err, httpmod.ErrRequestCreation)
	}
}

func TestFetchCancelledContext(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("x"))
	}))
	t.Cleanup(server.Close)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var buf bytes.Buffer
	_, err := httpmod.NewClient(nil).Fetch(ctx, server.URL, &buf)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Fetch() error = %v; want context.Canceled", err)
	}
}
