package qaclient

import (
	"context"
	"net/url"
	"time"
)

// page is the list envelope every collection endpoint uses. A missing
// next link means the listing is exhausted.
type page[T any] struct {
	Results []T     `json:"results"`
	Next    *string `json:"next"`
}

// getList fetches one page of a collection endpoint, following next
// links until exhaustion when allPages is set. Filters already encoded
// in a next link are not re-applied.
func getList[T any](ctx context.Context, c *Client, path string, query url.Values, allPages bool) ([]T, error) {
	next := path
	results := []T{}
	for {
		var pg page[T]
		err := c.getJson(ctx, next, query, &pg)
		if err != nil {
			return nil, err
		}
		results = append(results, pg.Results...)
		if !allPages || pg.Next == nil || *pg.Next == "" {
			return results, nil
		}
		next = *pg.Next
		query = nil

		// be gentle between pages, beyond the regular throttle
		timer := time.NewTimer(pageDelay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return nil, ctx.Err()
		}
	}
}
