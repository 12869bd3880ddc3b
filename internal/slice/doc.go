// Package slice implements cursor-based slice queries: a page request with an
// opaque position cursor, composable optional filters, predicate composition,
// the storage fetch contract and the assembly of over-fetched rows into a
// (content, has_next, next_cursor) result.
//
// A slice never carries a total count. The store is asked for size+1 rows in
// strict position order; the extra probe row only tells whether another slice
// exists and is never returned to the caller.
package slice
