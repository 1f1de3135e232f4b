package http

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/NamanBalaji/streamdl/internal/logger"
)

const (
	defaultConnectTimeout = 30 * time.Second
	defaultIdleTimeout    = 90 * time.Second
	keepAlivePeriod       = 30 * time.Second
	maxIdleConns          = 100
	tlsHandshakeTimeout   = 10 * time.Second
	expectContinueTimeout = 1 * time.Second
	maxConnsPerHost       = 16

	DefaultUserAgent = "streamdl/1.0"
)

type Client struct {
	*http.Client

	headers map[string]string
}

// NewClient creates a new HTTP client with custom transport settings. The
// given headers are sent with every request.
func NewClient(headers map[string]string) *Client {
	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   defaultConnectTimeout,
			KeepAlive: keepAlivePeriod,
		}).DialContext,
		MaxIdleConns:          maxIdleConns,
		IdleConnTimeout:       defaultIdleTimeout,
		TLSHandshakeTimeout:   tlsHandshakeTimeout,
		ExpectContinueTimeout: expectContinueTimeout,
		MaxConnsPerHost:       maxConnsPerHost,
	}

	return &Client{
		Client: &http.Client{
			Transport: transport,
		},
		headers: headers,
	}
}

// Get performs a GET request to the specified URL. The caller owns the
// response body.
func (c *Client) Get(ctx context.Context, urlStr string) (*http.Response, error) {
	log := logger.FromContext(ctx)

	req, err := generateRequest(ctx, urlStr, http.MethodGet, c.headers)
	if err != nil {
		return nil, err
	}

	log.Debugf("Sending GET request to %s", urlStr)

	resp, err := c.Do(req)
	if err != nil {
		log.Debugf("GET request failed for %s: %v", urlStr, err)
		return nil, ClassifyError(err)
	}

	if resp.StatusCode >= http.StatusBadRequest {
		resp.Body.Close()
		log.Debugf("GET request returned error status %d for %s", resp.StatusCode, urlStr)
		return nil, ClassifyHTTPError(resp.StatusCode)
	}

	return resp, nil
}

// Fetch streams the body of urlStr into w and returns the number of bytes
// copied.
func (c *Client) Fetch(ctx context.Context, urlStr string, w io.Writer) (int64, error) {
	log := logger.FromContext(ctx)

	resp, err := c.Get(ctx, urlStr)
	if err != nil {
		return 0, err
	}

	defer func() {
		if err := resp.Body.Close(); err != nil {
			log.Warnf("Failed to close response body: %v", err)
		}
	}()

	n, err := io.Copy(w, resp.Body)
	if err != nil {
		return n, ClassifyError(err)
	}

	return n, nil
}

// FetchText returns the body of urlStr as a string.
func (c *Client) FetchText(ctx context.Context, urlStr string) (string, error) {
	resp, err := c.Get(ctx, urlStr)
	if err != nil {
		return "", err
	}

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ClassifyError(err)
	}

	return string(b), nil
}

// generateRequest creates a new HTTP request with the specified method and URL.
func generateRequest(ctx context.Context, urlStr, method string, headers map[string]string) (*http.Request, error) {
	log := logger.FromContext(ctx)

	req, err := http.NewRequestWithContext(ctx, method, urlStr, http.NoBody)
	if err != nil {
		log.Errorf("Failed to create %s request for %s: %v", method, urlStr, err)
		return nil, fmt.Errorf("%w: %w", ErrRequestCreation, err)
	}

	req.Header.Set("User-Agent", DefaultUserAgent)

	for key, value := range headers {
		req.Header.Set(key, value)
	}

	return req, nil
}
