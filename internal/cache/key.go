package cache

import (
	"net/url"
	"sort"
	"strings"
)

// Key builds a deterministic cache key from an endpoint name and its query parameters.
// Parameters are sorted by name so the same request always maps to the same key,
// and different parameter values always map to different keys.
func Key(endpoint string, params map[string]string) string {
	if len(params) == 0 {
		return endpoint
	}

	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}

	sort.Strings(names)

	var b strings.Builder

	b.WriteString(endpoint)
	b.WriteByte('?')

	for i, name := range names {
		if i > 0 {
			b.WriteByte('&')
		}

		b.WriteString(url.QueryEscape(name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(params[name]))
	}

	return b.String()
}
