package fetcher

import (
	"net/url"
	"strings"

	"github.com/rohmanhakim/chartstats/internal/cache"
)

// HTTP boundary

type FetchParam struct {
	endpoint  string
	params    cache.Params
	userAgent string
}

func NewFetchParam(endpoint string, params cache.Params, userAgent string) FetchParam {
	return FetchParam{
		endpoint:  endpoint,
		params:    params,
		userAgent: userAgent,
	}
}

func (p FetchParam) Endpoint() string {
	return p.endpoint
}

func (p FetchParam) Params() cache.Params {
	return p.params
}

// RequestURL joins the endpoint with the query string built from params in
// their given order. Parameters already present on the endpoint are kept
// in front.
func (p FetchParam) RequestURL() (url.URL, error) {
	u, err := url.Parse(p.endpoint)
	if err != nil {
		return url.URL{}, err
	}

	query := EncodeQuery(p.params)
	switch {
	case query == "":
	case u.RawQuery == "":
		u.RawQuery = query
	default:
		u.RawQuery = u.RawQuery + "&" + query
	}
	return *u, nil
}

// EncodeQuery percent-encodes params as name=value pairs without reordering.
func EncodeQuery(params cache.Params) string {
	var b strings.Builder
	for i, p := range params {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(url.QueryEscape(p.Name))
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(p.Value))
	}
	return b.String()
}

type FetchResult struct {
	url  url.URL
	body []byte
	meta ResponseMeta
}

func (f FetchResult) URL() url.URL {
	return f.url
}

func (f FetchResult) Body() []byte {
	return f.body
}

func (f FetchResult) Code() int {
	return f.meta.statusCode
}

func (f FetchResult) ContentType() string {
	return f.meta.contentType
}

func (f FetchResult) Attempts() int {
	return f.meta.attempts
}

type ResponseMeta struct {
	statusCode  int
	contentType string
	attempts    int
}
