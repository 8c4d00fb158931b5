package cache_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"

	"github.com/rohmanhakim/chartstats/internal/cache"
)

func TestBuildKey(t *testing.T) {
	tests := []struct {
		name     string
		endpoint string
		params   cache.Params
		expected string
	}{
		{
			name:     "no params yields the endpoint",
			endpoint: "https://x",
			params:   nil,
			expected: "https://x",
		},
		{
			name:     "empty params yields the endpoint",
			endpoint: "https://www.billboard.com/charts",
			params:   cache.Params{},
			expected: "https://www.billboard.com/charts",
		},
		{
			name:     "params joined in order",
			endpoint: "https://api.example.com/search",
			params: cache.Params{
				cache.NewParam("q", "foo"),
				cache.NewParam("maxResults", 5),
			},
			expected: "https://api.example.com/search_q_foo_maxResults_5",
		},
		{
			name:     "order is significant",
			endpoint: "https://api.example.com/search",
			params: cache.Params{
				cache.NewParam("maxResults", 5),
				cache.NewParam("q", "foo"),
			},
			expected: "https://api.example.com/search_maxResults_5_q_foo",
		},
		{
			name:     "youtube videos request",
			endpoint: "https://www.googleapis.com/youtube/v3/videos",
			params: cache.Params{}.
				With("key", "K").
				With("part", "statistics").
				With("id", "abc123"),
			expected: "https://www.googleapis.com/youtube/v3/videos_key_K_part_statistics_id_abc123",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, cache.BuildKey(tt.endpoint, tt.params))
		})
	}
}

// Values are not escaped; this collision is a known limitation of the format.
func TestBuildKey_UnderscoreCollision(t *testing.T) {
	a := cache.BuildKey("e", cache.Params{cache.NewParam("q", "a_b")})
	b := cache.BuildKey("e", cache.Params{cache.NewParam("q_a", "b")})
	assert.Equal(t, a, b)
}

func TestNewParam_CoercesValues(t *testing.T) {
	assert.Equal(t, "20", cache.NewParam("maxResults", 20).Value)
	assert.Equal(t, "true", cache.NewParam("flag", true).Value)
	assert.Equal(t, "1.5", cache.NewParam("ratio", 1.5).Value)
	assert.Equal(t, "video", cache.NewParam("type", "video").Value)
}

func TestParams_WithDoesNotAlias(t *testing.T) {
	base := make(cache.Params, 0, 4).With("a", 1)
	left := base.With("b", 2)
	right := base.With("c", 3)

	assert.Equal(t, "e_a_1_b_2", cache.BuildKey("e", left))
	assert.Equal(t, "e_a_1_c_3", cache.BuildKey("e", right))
}

func paramsGen() *rapid.Generator[cache.Params] {
	return rapid.Custom(func(t *rapid.T) cache.Params {
		n := rapid.IntRange(0, 6).Draw(t, "n")
		params := make(cache.Params, 0, n)
		for i := 0; i < n; i++ {
			params = append(params, cache.NewParam(
				rapid.StringMatching(`[a-zA-Z]{1,10}`).Draw(t, "name"),
				rapid.String().Draw(t, "value"),
			))
		}
		return params
	})
}

func TestBuildKey_Properties(t *testing.T) {
	rapid.Check(t, func(rt *rapid.T) {
		endpoint := rapid.StringMatching(`https://[a-z]{1,12}\.com/[a-z]{0,8}`).Draw(rt, "endpoint")
		params := paramsGen().Draw(rt, "params")

		first := cache.BuildKey(endpoint, params)
		second := cache.BuildKey(endpoint, append(cache.Params(nil), params...))
		if first != second {
			rt.Fatalf("key not deterministic: %q vs %q", first, second)
		}
		if !strings.HasPrefix(first, endpoint) {
			rt.Fatalf("key %q does not start with endpoint %q", first, endpoint)
		}
		if len(params) == 0 && first != endpoint {
			rt.Fatalf("empty params must yield the endpoint, got %q", first)
		}
	})
}
