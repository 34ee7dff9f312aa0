package cache

import (
	"net/url"
	"testing"
)

func TestCacheKey_String(t *testing.T) {
	tests := []struct {
		name string
		key  CacheKey
		want string
	}{
		{
			name: "simple endpoint no params",
			key: CacheKey{
				URL: "https://api.brawlstars.com/v1/brawlers",
			},
			want: "brawl:GET https://api.brawlstars.com/v1/brawlers",
		},
		{
			name: "explicit method is upper-cased",
			key: CacheKey{
				Method: "get",
				URL:    "https://api.brawlstars.com/v1/events/rotation",
			},
			want: "brawl:GET https://api.brawlstars.com/v1/events/rotation",
		},
		{
			name: "endpoint with query params",
			key: CacheKey{
				URL: "https://api.brawlstars.com/v1/clubs/%23ABC/members",
				QueryParams: url.Values{
					"limit": []string{"3"},
				},
			},
			want: "brawl:GET https://api.brawlstars.com/v1/clubs/%23ABC/members?limit=3",
		},
		{
			name: "multiple query params (sorted)",
			key: CacheKey{
				URL: "https://api.brawlstars.com/v1/rankings/global/players",
				QueryParams: url.Values{
					"limit": []string{"200"},
					"after": []string{"abc"},
				},
			},
			want: "brawl:GET https://api.brawlstars.com/v1/rankings/global/players?after=abc&limit=200",
		},
		{
			name: "empty value list is dropped",
			key: CacheKey{
				URL: "https://api.brawlstars.com/v1/gamemodes",
				QueryParams: url.Values{
					"before": nil,
				},
			},
			want: "brawl:GET https://api.brawlstars.com/v1/gamemodes",
		},
		{
			name: "separators in values are escaped",
			key: CacheKey{
				URL: "https://api.brawlstars.com/v1/x",
				QueryParams: url.Values{
					"a": []string{"1&b=2"},
				},
			},
			want: "brawl:GET https://api.brawlstars.com/v1/x?a=1%26b%3D2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.key.String()
			if got != tt.want {
				t.Errorf("CacheKey.String() = %v, want %v", got, tt.want)
			}
		})
	}
}

// TestCacheKey_OrderIndependent ensures insertion order of params never matters.
func TestCacheKey_OrderIndependent(t *testing.T) {
	a := url.Values{}
	a.Set("a", "1")
	a.Set("b", "2")

	b := url.Values{}
	b.Set("b", "2")
	b.Set("a", "1")

	k1 := CacheKey{URL: "https://example.com/x", QueryParams: a}.String()
	k2 := CacheKey{URL: "https://example.com/x", QueryParams: b}.String()

	if k1 != k2 {
		t.Errorf("keys differ: %q vs %q", k1, k2)
	}
}

func TestCacheKey_DistinctRequests(t *testing.T) {
	keys := []CacheKey{
		{URL: "https://example.com/x"},
		{URL: "https://example.com/y"},
		{URL: "https://example.com/x", QueryParams: url.Values{"a": {"1"}}},
		{URL: "https://example.com/x", QueryParams: url.Values{"a": {"2"}}},
		{URL: "https://example.com/x", QueryParams: url.Values{"a": {"1"}, "b": {""}}},
		{Method: "HEAD", URL: "https://example.com/x"},
	}

	seen := make(map[string]int)
	for i, k := range keys {
		s := k.String()
		if j, ok := seen[s]; ok {
			t.Errorf("keys[%d] and keys[%d] collide: %q", j, i, s)
		}
		seen[s] = i
	}
}

// TestCacheKey_Determinism ensures same input always produces same key
func TestCacheKey_Determinism(t *testing.T) {
	key := CacheKey{
		URL: "https://api.brawlstars.com/v1/rankings/DE/brawlers/16000000",
		QueryParams: url.Values{
			"limit":  []string{"50"},
			"after":  []string{"cursor"},
			"before": []string{"other"},
		},
	}

	first := key.String()
	for i := 0; i < 10; i++ {
		if result := key.String(); result != first {
			t.Errorf("result[%d] = %v, want %v (not deterministic)", i, result, first)
		}
	}
}
