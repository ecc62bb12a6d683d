// Package urlutil parses relative URLs into a path plus an ordered query and
// appends query parameters without reordering what is already there.
package urlutil

import (
	"net/url"
	"strings"
)

// Param is a single query parameter. A nil Value renders as a bare flag ("kiosk").
type Param struct {
	Key   string
	Value *string
}

// P builds a Param with a value.
func P(key, value string) Param { return Param{Key: key, Value: &value} }

// Flag builds a valueless Param.
func Flag(key string) Param { return Param{Key: key} }

// URL is a parsed path with its query parameters in source order.
type URL struct {
	Path  string
	Query []Param
}

// Parse splits raw into path and query. It never fails: malformed input
// simply yields whatever pieces could be found, possibly empty.
func Parse(raw string) URL {
	if i := strings.IndexByte(raw, '#'); i >= 0 {
		raw = raw[:i]
	}

	path, rawQuery, _ := strings.Cut(raw, "?")
	u := URL{Path: path}
	if rawQuery == "" {
		return u
	}

	for _, pair := range strings.Split(rawQuery, "&") {
		if pair == "" {
			continue
		}
		key, value, hasValue := strings.Cut(pair, "=")
		key = unescape(key)
		if !hasValue {
			u.Query = append(u.Query, Flag(key))
			continue
		}
		u.Query = append(u.Query, P(key, unescape(value)))
	}
	return u
}

// Get returns the first value for key. Flags report an empty value.
func (u URL) Get(key string) (string, bool) {
	for _, p := range u.Query {
		if p.Key != key {
			continue
		}
		if p.Value == nil {
			return "", true
		}
		return *p.Value, true
	}
	return "", false
}

// Has reports whether key appears in the query.
func (u URL) Has(key string) bool {
	_, ok := u.Get(key)
	return ok
}

// String reassembles the URL, preserving parameter order.
func (u URL) String() string {
	out := u.Path
	for _, p := range u.Query {
		out = AddParam(out, p.Key, p.Value)
	}
	return out
}

// AddParam appends key (and value, when non-nil) to raw, choosing '?' or '&'
// depending on whether raw already carries a query. Key and value are
// query-escaped.
func AddParam(raw, key string, value *string) string {
	sep := "?"
	if strings.Contains(raw, "?") {
		sep = "&"
	}
	if value == nil {
		return raw + sep + url.QueryEscape(key)
	}
	return raw + sep + url.QueryEscape(key) + "=" + url.QueryEscape(*value)
}

func unescape(s string) string {
	out, err := url.QueryUnescape(s)
	if err != nil {
		return s
	}
	return out
}
