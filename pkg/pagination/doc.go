// Package pagination walks offset/limit listings page by page.
//
// A listing is addressed by a Cursor. The first page comes from Begin, which
// attaches offset and limit to a collection URL; every later page comes from
// Next with the continuation URL the server returned. Cursors only move
// forward, there is no way to build one from a "previous" link.
//
// Example usage:
//
//	start := pagination.Begin(collectionURL, 0, pagination.DefaultPageSize)
//	items, err := pagination.Collect(ctx, start, fetchPage)
//
// Collect:
//   - Fetches pages strictly in order, one at a time
//   - Appends each page's items in server order
//   - Stops when a page has no next link
//   - Discards everything on the first failure
package pagination
