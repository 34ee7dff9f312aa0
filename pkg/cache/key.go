package cache

import (
	"net/http"
	"net/url"
	"sort"
	"strings"
)

// keyPrefix namespaces keys in a shared Redis instance.
const keyPrefix = "brawl"

// CacheKey identifies a cached API response.
type CacheKey struct {
	// Method is the HTTP method (empty means GET).
	Method string

	// URL is the fully-resolved request URL without query string
	// (e.g., "https://api.brawlstars.com/v1/players/%23ABC").
	URL string

	// QueryParams are the request query parameters.
	QueryParams url.Values
}

// String generates a deterministic cache key string.
// Format: brawl:METHOD url?query
//
// The query part uses url.Values.Encode, which sorts by parameter name and
// escapes separators, so parameter insertion order never changes the key and
// distinct requests never share one.
//
// Example:
//
//	brawl:GET https://api.brawlstars.com/v1/clubs/%23ABC/members?after=x&limit=3
func (k CacheKey) String() string {
	method := strings.ToUpper(k.Method)
	if method == "" {
		method = http.MethodGet
	}

	var b strings.Builder
	b.WriteString(keyPrefix)
	b.WriteByte(':')
	b.WriteString(method)
	b.WriteByte(' ')
	b.WriteString(k.URL)

	if encoded := canonicalQuery(k.QueryParams); encoded != "" {
		b.WriteByte('?')
		b.WriteString(encoded)
	}

	return b.String()
}

// canonicalQuery encodes params with keys sorted and each key's values
// sorted, dropping keys that carry no values.
func canonicalQuery(params url.Values) string {
	if len(params) == 0 {
		return ""
	}

	sorted := make(url.Values, len(params))
	for key, values := range params {
		if len(values) == 0 {
			continue
		}
		vs := append([]string(nil), values...)
		sort.Strings(vs)
		sorted[key] = vs
	}

	return sorted.Encode()
}
