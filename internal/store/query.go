package store

import (
	"encoding/json"
	"fmt"
	"net/url"
	"strconv"
)

// Sort is an optional field+direction ordering for listings.
type Sort struct {
	Field      string
	Descending bool
}

// ordering renders the sort in the backend's query convention
// ("field" ascending, "-field" descending).
func (s Sort) ordering() string {
	if s.Field == "" {
		return ""
	}
	if s.Descending {
		return "-" + s.Field
	}
	return s.Field
}

// Query holds the current listing parameters of a store.
type Query struct {
	Page    int
	Filters map[string]string
	Sort    Sort
	Search  string
}

// clone returns a deep copy so snapshots taken for in-flight requests
// are unaffected by later filter changes.
func (q Query) clone() Query {
	out := q
	if q.Filters != nil {
		out.Filters = make(map[string]string, len(q.Filters))
		for k, v := range q.Filters {
			out.Filters[k] = v
		}
	}
	return out
}

// params renders the query as request parameters. Filters with empty
// values are omitted rather than sent as empty constraints.
func (q Query) params(pageSize int) url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("page_size", strconv.Itoa(pageSize))
	for name, value := range q.Filters {
		if value == "" {
			continue
		}
		values.Set(name, value)
	}
	if ordering := q.Sort.ordering(); ordering != "" {
		values.Set("ordering", ordering)
	}
	if q.Search != "" {
		values.Set("search", q.Search)
	}
	return values
}

// Page is one normalized listing result.
type Page[T any] struct {
	Items      []T
	TotalCount int
	PageCount  int
}

// DecodeItems normalizes the two listing shapes the backend produces —
// a bare array, or a {results, count} envelope — into the item slice.
// The second return is the server's count when the envelope carried
// one.
func DecodeItems[T any](raw json.RawMessage) ([]T, *int, error) {
	if isJSONArray(raw) {
		var items []T
		if err := json.Unmarshal(raw, &items); err != nil {
			return nil, nil, fmt.Errorf("failed to decode listing: %w", err)
		}
		return items, nil, nil
	}

	var envelope struct {
		Results json.RawMessage `json:"results"`
		Count   *int            `json:"count"`
	}
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, fmt.Errorf("failed to decode listing envelope: %w", err)
	}
	if envelope.Results == nil {
		return nil, nil, fmt.Errorf("listing response has neither an array body nor a results field")
	}
	var items []T
	if err := json.Unmarshal(envelope.Results, &items); err != nil {
		return nil, nil, fmt.Errorf("failed to decode listing results: %w", err)
	}
	return items, envelope.Count, nil
}

// decodePage builds a normalized page. When the count is absent the
// total degrades to the number of items on this page.
func decodePage[T any](raw json.RawMessage, pageSize int) (Page[T], error) {
	var page Page[T]
	items, count, err := DecodeItems[T](raw)
	if err != nil {
		return page, err
	}
	page.Items = items
	if count != nil {
		page.TotalCount = *count
	} else {
		page.TotalCount = len(items)
	}
	page.PageCount = pageCount(page.TotalCount, pageSize)
	return page, nil
}

// isJSONArray reports whether the first significant byte opens an array.
func isJSONArray(raw json.RawMessage) bool {
	for _, b := range raw {
		switch b {
		case ' ', '\t', '\n', '\r':
			continue
		case '[':
			return true
		default:
			return false
		}
	}
	return false
}

// pageCount is ceil(total/pageSize), clamped to at least one page.
func pageCount(total, pageSize int) int {
	if total <= 0 || pageSize <= 0 {
		return 1
	}
	n := (total + pageSize - 1) / pageSize
	if n < 1 {
		return 1
	}
	return n
}
