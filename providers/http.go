// Package providers implements the capabilities behind chat commands.
// Every provider returns errors wrapped with errors.ErrProviderFailure.
package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"groupchat/errors"
	"io"
	"net/http"
	"time"
)

const (
	userAgent       = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"
	maxResponseSize = 4 << 20
)

// NewHTTPClient is shared by every provider. The per-call deadline comes
// from the context, the client timeout is only a backstop.
func NewHTTPClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func failure(format string, args ...any) error {
	return fmt.Errorf("%w: %s", errors.ErrProviderFailure, fmt.Sprintf(format, args...))
}

// fetch performs the request and returns the body of a 2xx response.
func fetch(client *http.Client, req *http.Request) ([]byte, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", userAgent)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, failure("%s %s: %v", req.Method, req.URL.Host, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, failure("read %s: %v", req.URL.Host, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, failure("%s answered %d", req.URL.Host, resp.StatusCode)
	}
	return body, nil
}

func get(ctx context.Context, client *http.Client, rawURL string, header http.Header) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, failure("build request: %v", err)
	}
	for k, v := range header {
		req.Header[k] = v
	}
	return fetch(client, req)
}

func getJSON(ctx context.Context, client *http.Client, rawURL string, header http.Header, out any) error {
	body, err := get(ctx, client, rawURL, header)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(body, out); err != nil {
		return failure("decode response: %v", err)
	}
	return nil
}
