package urlutil

import (
	"fmt"
	"net/url"
	"strings"
)

// Canonicalize maps equivalent spellings of a URL to a single form:
// scheme and host are lowercased, default ports and fragments are dropped.
// Path and query are kept verbatim; both are part of the cache key of a
// fetched page, including any trailing slash.
func Canonicalize(sourceURL url.URL) url.URL {
	canonical := sourceURL

	canonical.Scheme = strings.ToLower(canonical.Scheme)
	canonical.Host = strings.ToLower(canonical.Host)

	if host, port := canonical.Hostname(), canonical.Port(); port != "" {
		if (canonical.Scheme == "http" && port == "80") ||
			(canonical.Scheme == "https" && port == "443") {
			canonical.Host = host
		}
	}

	canonical.Fragment = ""
	canonical.RawFragment = ""
	canonical.ForceQuery = false

	return canonical
}

// Resolve joins a possibly relative href onto base and canonicalizes the result.
func Resolve(base url.URL, href string) (url.URL, error) {
	href = strings.TrimSpace(href)
	if href == "" {
		return url.URL{}, fmt.Errorf("empty href")
	}
	ref, err := url.Parse(href)
	if err != nil {
		return url.URL{}, fmt.Errorf("parse href %q: %w", href, err)
	}
	return Canonicalize(*base.ResolveReference(ref)), nil
}
