package stl

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"golang.org/x/sync/errgroup"
)

// DefaultMaxBytes caps a single download.
const DefaultMaxBytes int64 = 50 << 20

// Fetcher downloads and decodes remote STL files.
type Fetcher struct {
	Client   *http.Client
	MaxBytes int64
	// Concurrency bounds FetchAll. Zero means 4.
	Concurrency int
}

// Download returns the raw bytes at rawURL, failing with ErrTooLarge once
// the body exceeds MaxBytes.
func (f *Fetcher) Download(ctx context.Context, rawURL string) ([]byte, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}
	limit := f.MaxBytes
	if limit <= 0 {
		limit = DefaultMaxBytes
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create stl request: %w", err)
	}
	req.Header.Set("Accept", "model/stl, application/sla, application/octet-stream, */*")

	slog.Debug("stl_fetch_start", "url", rawURL)
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch stl: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("stl request failed (%d): %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if resp.ContentLength > limit {
		return nil, fmt.Errorf("%w: %d bytes", ErrTooLarge, resp.ContentLength)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, limit+1))
	if err != nil {
		return nil, fmt.Errorf("read stl body: %w", err)
	}
	if int64(len(data)) > limit {
		return nil, fmt.Errorf("%w: more than %d bytes", ErrTooLarge, limit)
	}

	slog.Debug("stl_fetch_done", "url", rawURL, "bytes", len(data))
	return data, nil
}

// Fetch downloads rawURL and decodes it as binary or ASCII STL.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (*Geometry, error) {
	data, err := f.Download(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	g, err := Decode(data)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", rawURL, err)
	}
	return g, nil
}

// FetchAll fetches every URL concurrently. Results keep the input order.
// The first failure cancels the remaining downloads.
func (f *Fetcher) FetchAll(ctx context.Context, urls []string) ([]*Geometry, error) {
	out := make([]*Geometry, len(urls))

	eg, egCtx := errgroup.WithContext(ctx)
	limit := f.Concurrency
	if limit <= 0 {
		limit = 4
	}
	eg.SetLimit(limit)

	for i, u := range urls {
		eg.Go(func() error {
			g, err := f.Fetch(egCtx, u)
			if err != nil {
				return err
			}
			out[i] = g
			return nil
		})
	}

	if err := eg.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ProxiedURL rewrites an http(s) URL to go through the server's
// /stl-proxy endpoint at base. Anything else is returned unchanged.
func ProxiedURL(base, rawURL string) string {
	lower := strings.ToLower(rawURL)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		return rawURL
	}
	return strings.TrimRight(base, "/") + "/stl-proxy?url=" + url.QueryEscape(rawURL)
}
