// Package pagination implements the dual-mode listing engine used by the
// read APIs: classic page/limit offset pagination and opaque cursor
// pagination over the same sorted view.
//
// Both modes operate on one totally ordered sequence: items are sorted by
// the requested field and direction with the unique item id as tie-break,
// so no item is duplicated or skipped across pages even when sort values
// collide. Cursor tokens are base64-encoded JSON carrying the last item's
// sort value and id; a malformed token degrades to first-page offset mode
// with a warning rather than an error.
package pagination
