package comparison

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"
)

// ErrDocumentTooLarge is returned when a remote document exceeds the size limit.
var ErrDocumentTooLarge = errors.New("csv document too large")

var maxDocumentBytes int64 = 16 << 20

// Load reads a comparison document from a local path or an http(s) URL,
// decodes it and rebalances the categories.
func Load(ctx context.Context, client *http.Client, src string) ([]Record, error) {
	text, err := readSource(ctx, client, src)
	if err != nil {
		return nil, err
	}
	records, err := Parse(text)
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", src, err)
	}
	slog.Debug("comparison_loaded", "source", src, "records", len(records))
	return Rebalance(records), nil
}

func readSource(ctx context.Context, client *http.Client, src string) (string, error) {
	lower := strings.ToLower(src)
	if !strings.HasPrefix(lower, "http://") && !strings.HasPrefix(lower, "https://") {
		data, err := os.ReadFile(src)
		if err != nil {
			return "", fmt.Errorf("read csv: %w", err)
		}
		return string(data), nil
	}

	if client == nil {
		client = http.DefaultClient
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, src, nil)
	if err != nil {
		return "", fmt.Errorf("create csv request: %w", err)
	}
	req.Header.Set("Accept", "text/csv")

	resp, err := client.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch csv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return "", fmt.Errorf("failed to load CSV (status %d)", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return "", fmt.Errorf("read csv body: %w", err)
	}
	if int64(len(data)) > maxDocumentBytes {
		return "", fmt.Errorf("%w: more than %d bytes", ErrDocumentTooLarge, maxDocumentBytes)
	}
	return string(data), nil
}
