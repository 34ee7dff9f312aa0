package pagination

import (
	"context"
	"fmt"
)

// PageFunc fetches the page that starts after the cursor, "" for the first
// page. It returns the page's items and the cursor of the following page,
// "" when there is none.
type PageFunc[T any] func(ctx context.Context, after string) (items []T, next string, err error)

// Collect follows after-cursors from the first page and concatenates the
// items. It stops when no cursor remains, when a cursor repeats, or after
// maxPages pages if maxPages > 0.
//
// On error it returns the items collected so far together with the error.
func Collect[T any](ctx context.Context, fetch PageFunc[T], maxPages int) ([]T, error) {
	var (
		all    []T
		cursor string
		seen   = make(map[string]struct{})
	)

	for page := 0; maxPages <= 0 || page < maxPages; page++ {
		if err := ctx.Err(); err != nil {
			return all, err
		}

		items, next, err := fetch(ctx, cursor)
		if err != nil {
			return all, fmt.Errorf("page %d: %w", page+1, err)
		}
		all = append(all, items...)

		if next == "" {
			break
		}
		if _, loop := seen[next]; loop {
			break
		}
		seen[next] = struct{}{}
		cursor = next
	}

	return all, nil
}
