package cache

import "strings"

const keySeparator = "_"

// BuildKey derives the request identity used as the cache slot for an
// endpoint and its parameters. With no parameters the key is the endpoint
// itself; otherwise the endpoint is followed by every name and value, in
// parameter order, joined by "_".
//
// Values are not escaped, so parameter values containing "_" can make two
// different requests share a key. Existing cache files rely on this exact
// format.
func BuildKey(endpoint string, params Params) string {
	if len(params) == 0 {
		return endpoint
	}

	parts := make([]string, 0, 1+2*len(params))
	parts = append(parts, endpoint)
	for _, p := range params {
		parts = append(parts, p.Name, p.Value)
	}
	return strings.Join(parts, keySeparator)
}
