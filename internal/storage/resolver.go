package storage

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const maxFetchBytes = 50 << 20

// Resolver fetches documents by reference. References that are http(s)
// URLs are downloaded directly; everything else is a key in the store.
type Resolver struct {
	store      Store
	httpClient *http.Client
}

func NewResolver(store Store, timeout time.Duration) *Resolver {
	return &Resolver{
		store:      store,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (r *Resolver) Fetch(ctx context.Context, ref string) ([]byte, error) {
	if ref == "" {
		return nil, ErrNotFound
	}
	if isURL(ref) {
		return r.fetchURL(ctx, ref)
	}
	return r.store.Get(ctx, ref)
}

func (r *Resolver) fetchURL(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to execute request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status code %d fetching %s", resp.StatusCode, url)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxFetchBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read response body: %w", err)
	}
	if len(data) > maxFetchBytes {
		return nil, fmt.Errorf("document at %s exceeds %d bytes", url, maxFetchBytes)
	}
	return data, nil
}

func isURL(ref string) bool {
	lower := strings.ToLower(ref)
	return strings.HasPrefix(lower, "http://") || strings.HasPrefix(lower, "https://")
}
