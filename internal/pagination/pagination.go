package pagination

import (
	"errors"
	"sort"
	"time"
)

// errTokenValueMismatch marks a decodable token whose sort value cannot
// be compared against the active sort key.
var errTokenValueMismatch = errors.New("cursor value type does not match sort key")

// Sort directions.
const (
	OrderAsc  = "asc"
	OrderDesc = "desc"
)

// Pagination limits.
const (
	DefaultLimit = 20
	MaxLimit     = 100
)

// Request describes one page of a listing.
//
// When Token is non-empty the engine runs in cursor mode and Page is
// ignored; otherwise it runs in offset mode.
type Request struct {
	Page      int
	Limit     int
	SortField string
	SortOrder string // OrderAsc or OrderDesc
	Token     string
}

// Result is one page of items plus navigation metadata.
//
// TotalCount and TotalPages describe the whole filtered set (both modes
// operate on a fully materialised slice). NextToken is set whenever
// HasNextPage is true, so offset-mode clients can switch to cursor mode
// mid-stream.
type Result[T any] struct {
	Items       []T    `json:"items"`
	Page        int    `json:"page"`
	Limit       int    `json:"limit"`
	TotalCount  int    `json:"totalCount"`
	TotalPages  int    `json:"totalPages"`
	HasNextPage bool   `json:"hasNextPage"`
	NextToken   string `json:"nextPageToken,omitempty"`
}

// Logger is the minimal logging surface the engine needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// Paginate orders the already-filtered items and returns the requested page.
//
// id must return each item's unique identifier; key must return the sort
// value for the requested field (time.Time, float64, int, or string).
// The sequence is totally ordered: items sort by key in the requested
// direction with id as tie-break in the same direction, so pages never
// duplicate or skip items.
//
// Cursor mode keeps only items strictly after the token's position. A
// token that cannot be decoded or whose value type does not match the
// key falls back to first-page offset mode with a warning.
func Paginate[T any](items []T, req Request, id func(T) string, key func(T) any, logger Logger) Result[T] {
	req = normalise(req)

	sorted := make([]T, len(items))
	copy(sorted, items)
	desc := req.SortOrder == OrderDesc
	sort.SliceStable(sorted, func(i, j int) bool {
		c, ok := compareValues(key(sorted[i]), key(sorted[j]))
		if !ok || c == 0 {
			c = compareStrings(id(sorted[i]), id(sorted[j]))
		}
		if desc {
			return c > 0
		}
		return c < 0
	})

	if req.Token != "" {
		token, err := DecodeToken(req.Token, req.SortField)
		if err == nil {
			if page, ok := cursorPage(sorted, req, token, id, key); ok {
				page.TotalCount = len(items)
				page.TotalPages = totalPages(len(items), req.Limit)
				return page
			}
			err = errTokenValueMismatch
		}
		if logger != nil {
			logger.Warn("unusable page cursor, falling back to offset mode",
				"error", err,
			)
		}
		req.Token = ""
		req.Page = 1
	}

	return offsetPage(sorted, req, id, key, len(items))
}

// offsetPage returns page N of the sorted slice.
func offsetPage[T any](sorted []T, req Request, id func(T) string, key func(T) any, total int) Result[T] {
	start := (req.Page - 1) * req.Limit
	if start > len(sorted) {
		start = len(sorted)
	}
	end := start + req.Limit
	if end > len(sorted) {
		end = len(sorted)
	}

	result := Result[T]{
		Items:       sorted[start:end],
		Page:        req.Page,
		Limit:       req.Limit,
		TotalCount:  total,
		TotalPages:  totalPages(total, req.Limit),
		HasNextPage: end < len(sorted),
	}
	if result.HasNextPage && len(result.Items) > 0 {
		last := result.Items[len(result.Items)-1]
		result.NextToken = EncodeToken(req.SortField, key(last), id(last))
	}
	return result
}

// cursorPage returns the items strictly after the token position.
// Returns ok=false when the token value cannot be compared against keys.
func cursorPage[T any](sorted []T, req Request, token Token, id func(T) string, key func(T) any) (Result[T], bool) {
	desc := req.SortOrder == OrderDesc

	// Find the first item past the cursor. after() is monotone over the
	// sorted slice, so binary search applies.
	comparable := true
	after := func(item T) bool {
		c, ok := compareValues(key(item), token.Value)
		if !ok {
			comparable = false
			return false
		}
		if c == 0 {
			c = compareStrings(id(item), token.ID)
		}
		if desc {
			return c < 0
		}
		return c > 0
	}

	start := sort.Search(len(sorted), func(i int) bool { return after(sorted[i]) })
	if !comparable {
		return Result[T]{}, false
	}

	end := start + req.Limit
	if end > len(sorted) {
		end = len(sorted)
	}

	result := Result[T]{
		Items:       sorted[start:end],
		Limit:       req.Limit,
		HasNextPage: end < len(sorted),
	}
	if result.HasNextPage && len(result.Items) > 0 {
		last := result.Items[len(result.Items)-1]
		result.NextToken = EncodeToken(req.SortField, key(last), id(last))
	}
	return result, true
}

// normalise applies defaults and bounds to a request.
func normalise(req Request) Request {
	if req.Page < 1 {
		req.Page = 1
	}
	if req.Limit <= 0 {
		req.Limit = DefaultLimit
	}
	if req.Limit > MaxLimit {
		req.Limit = MaxLimit
	}
	if req.SortOrder != OrderAsc {
		req.SortOrder = OrderDesc
	}
	return req
}

func totalPages(total, limit int) int {
	if total == 0 {
		return 0
	}
	return (total + limit - 1) / limit
}

// compareValues compares two sort values of a supported type.
// JSON-decoded token values arrive as float64 or string; time keys
// accept RFC3339 strings from tokens.
func compareValues(a, b any) (int, bool) {
	switch av := a.(type) {
	case time.Time:
		switch bv := b.(type) {
		case time.Time:
			return av.Compare(bv), true
		case string:
			parsed, err := time.Parse(time.RFC3339Nano, bv)
			if err != nil {
				return 0, false
			}
			return av.Compare(parsed), true
		}
	case float64:
		if bv, ok := toFloat(b); ok {
			return compareFloats(av, bv), true
		}
	case int:
		if bv, ok := toFloat(b); ok {
			return compareFloats(float64(av), bv), true
		}
	case string:
		if bv, ok := b.(string); ok {
			return compareStrings(av, bv), true
		}
	}
	return 0, false
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	}
	return 0, false
}

func compareFloats(a, b float64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}

func compareStrings(a, b string) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
