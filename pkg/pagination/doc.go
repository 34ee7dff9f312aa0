// Package pagination provides cursor walking and bounded parallel fetching
// for list endpoints.
//
// The API pages lists with opaque "after"/"before" cursors. Collect walks
// the after-cursors of one list:
//
//	members, err := pagination.Collect(ctx, func(ctx context.Context, after string) ([]Member, string, error) {
//		page, err := svc.ClubMembers(ctx, tag, brawlstars.PageOptions{After: after})
//		if err != nil {
//			return nil, "", err
//		}
//		return page.Items, page.Paging.Cursors.After, nil
//	}, 0)
//
// FetchAll fans a set of keys out to a worker pool:
//
//	players, err := pagination.FetchAll(ctx, pagination.DefaultConfig(), tags, svc.Player)
//
// The batch fetcher:
//   - Runs at most MaxConcurrency fetches at once (default 10)
//   - Bounds each key by Timeout (default 15s)
//   - Fetches duplicate keys once
//   - Returns partial results with a joined error for the failed keys
package pagination
