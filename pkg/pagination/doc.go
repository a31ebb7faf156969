// Package pagination walks the next-linked pages of the logistics API and
// accumulates their results into a single table.
//
// Every page body has the shape
//
//	{"count": 123, "next": "https://host/logistics/?page=2", "previous": null, "results": [...]}
//
// and the walk stops at the first page whose "next" is null or absent.
// Because the next URL is only known once the previous page is decoded, the
// walk is strictly sequential.
//
// Example usage:
//
//	agg := pagination.NewAggregator(apiClient, pagination.DefaultConfig())
//	tbl, err := agg.FetchAll(ctx, "https://host/logistics/")
//
// The aggregator:
//   - Fetches one page at a time through a PageFetcher
//   - Decodes results keeping the field order of each record
//   - Appends results in page order
//   - Aborts on the first fetch or decode error (no partial table)
//   - Refuses to revisit a page (ErrPaginationLoop)
//   - Optionally caps the number of pages (ErrTooManyPages)
package pagination
