package client

import (
	"fmt"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"time"
)

// Params is a flat set of query parameters. Values are scalars; nil values
// and nil pointers are omitted, never sent as empty.
type Params map[string]any

// Values converts p to url.Values.
func (p Params) Values() url.Values {
	values := url.Values{}
	for name, v := range p {
		s, ok := paramString(v)
		if !ok {
			continue
		}
		values.Set(name, s)
	}
	return values
}

func paramString(v any) (string, bool) {
	if v == nil {
		return "", false
	}

	rv := reflect.ValueOf(v)
	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			return "", false
		}
		rv = rv.Elem()
	}

	switch val := rv.Interface().(type) {
	case string:
		return val, true
	case fmt.Stringer:
		return val.String(), true
	default:
		return fmt.Sprint(val), true
	}
}

// Request describes a single logical API call.
type Request struct {
	// Method defaults to GET, the only supported method.
	Method string

	// Path is relative to the configured base URL, e.g. "/players/%23ABC".
	Path string

	// Query is the optional set of query parameters.
	Query Params

	// TTL overrides the client's default cache TTL when > 0.
	TTL time.Duration

	// NoCache skips both cache lookup and cache store.
	NoCache bool

	// Name labels metrics and logs; defaults to Path.
	Name string
}

func (r Request) method() string {
	if r.Method == "" {
		return http.MethodGet
	}
	return strings.ToUpper(r.Method)
}

func (r Request) endpoint() string {
	if r.Name != "" {
		return r.Name
	}
	return r.Path
}
