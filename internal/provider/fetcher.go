package provider

import (
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"sort"
	"sync"
	"time"

	"github.com/weekwise/backend/internal/engine"
)

// Fetcher downloads and parses ICS feeds.
type Fetcher struct {
	client *http.Client
}

// NewFetcher creates a fetcher with a bounded per-request timeout.
func NewFetcher() *Fetcher {
	return &Fetcher{
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// FetchAll fetches every feed concurrently and merges the results. A failed
// feed is recorded in FetchResult.Failures and never aborts the others; the
// caller decides how to surface partial data. The merged event slice is
// sorted by start time so downstream output is stable regardless of which
// goroutine finished first.
func (f *Fetcher) FetchAll(ctx context.Context, feeds []Feed, within engine.Interval) FetchResult {
	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		result FetchResult
	)

	for _, feed := range feeds {
		wg.Add(1)
		go func(feed Feed) {
			defer wg.Done()
			events, err := f.FetchFeed(ctx, feed, within)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Feed %s fetch failed: %v", feed.ID, err)
				result.Failures = append(result.Failures, FeedFailure{
					FeedID:    feed.ID,
					AccountID: feed.AccountID,
					Error:     err.Error(),
					FailedAt:  time.Now().UTC(),
				})
				return
			}
			result.Events = append(result.Events, events...)
		}(feed)
	}
	wg.Wait()

	sort.SliceStable(result.Events, func(i, j int) bool {
		a, b := result.Events[i], result.Events[j]
		if !a.Start.Equal(b.Start) {
			return a.Start.Before(b.Start)
		}
		return a.ID < b.ID
	})
	sort.Slice(result.Failures, func(i, j int) bool {
		return result.Failures[i].FeedID < result.Failures[j].FeedID
	})
	return result
}

// FetchFeed downloads and parses a single feed.
func (f *Fetcher) FetchFeed(ctx context.Context, feed Feed, within engine.Interval) ([]engine.Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, feed.URL, nil)
	if err != nil {
		return nil, fmt.Errorf("building request: %w", err)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching feed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("feed returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 10<<20))
	if err != nil {
		return nil, fmt.Errorf("reading feed body: %w", err)
	}

	return ParseFeed(feed, body, within)
}
