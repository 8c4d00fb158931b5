package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
	"github.com/rohmanhakim/chartstats/pkg/limiter"
	"github.com/rohmanhakim/chartstats/pkg/retry"
)

/*
Responsibilities

- Perform HTTP GET requests with ordered query parameters
- Apply headers and timeouts
- Classify responses
- Space out requests per host

The fetcher never parses content; it only returns bytes and metadata.
*/

type HTTPFetcher struct {
	metadataSink metadata.MetadataSink
	httpClient   *http.Client
	rateLimiter  limiter.RateLimiter
}

func NewHTTPFetcher(
	metadataSink metadata.MetadataSink,
	httpClient *http.Client,
	rateLimiter limiter.RateLimiter,
) *HTTPFetcher {
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	return &HTTPFetcher{
		metadataSink: metadataSink,
		httpClient:   httpClient,
		rateLimiter:  rateLimiter,
	}
}

func (h *HTTPFetcher) Fetch(
	ctx context.Context,
	fetchParam FetchParam,
	retryParam retry.RetryParam,
) (FetchResult, failure.ClassifiedError) {
	callerMethod := "HTTPFetcher.Fetch"

	requestURL, err := fetchParam.RequestURL()
	if err != nil {
		fetchErr := &FetchError{
			Message:  err.Error(),
			Cause:    ErrCauseInvalidEndpoint,
			Endpoint: fetchParam.endpoint,
			Err:      err,
		}
		h.recordFetchError(callerMethod, fetchParam.endpoint, fetchErr)
		return FetchResult{}, fetchErr
	}

	startTime := time.Now()
	result := retry.Retry(ctx, retryParam, func(ctx context.Context) (FetchResult, failure.ClassifiedError) {
		return h.performFetch(ctx, requestURL, fetchParam)
	})
	duration := time.Since(startTime)

	if result.IsFailure() {
		var fetchErr *FetchError
		if !errors.As(result.Err(), &fetchErr) {
			fetchErr = &FetchError{
				Message:  result.Err().Error(),
				Cause:    ErrCauseNetworkFailure,
				Endpoint: fetchParam.endpoint,
				Err:      result.Err(),
			}
		}
		h.metadataSink.RecordFetch(requestURL.String(), fetchErr.StatusCode, duration, "", result.Attempts()-1)
		h.recordFetchError(callerMethod, fetchParam.endpoint, fetchErr)
		return FetchResult{}, fetchErr
	}

	fetched := result.Value()
	fetched.meta.attempts = result.Attempts()
	h.metadataSink.RecordFetch(requestURL.String(), fetched.Code(), duration, fetched.ContentType(), result.Attempts()-1)
	return fetched, nil
}

func (h *HTTPFetcher) recordFetchError(callerMethod string, endpoint string, err *FetchError) {
	h.metadataSink.RecordError(
		time.Now(),
		"fetcher",
		callerMethod,
		mapFetchErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, endpoint),
			metadata.NewAttr(metadata.AttrHTTPStatus, fmt.Sprint(err.StatusCode)),
		},
	)
}

func (h *HTTPFetcher) performFetch(ctx context.Context, requestURL url.URL, fetchParam FetchParam) (FetchResult, failure.ClassifiedError) {
	endpoint := fetchParam.endpoint
	host := requestURL.Host

	if h.rateLimiter != nil {
		if err := h.rateLimiter.Wait(ctx, host); err != nil {
			return FetchResult{}, &FetchError{
				Message:  err.Error(),
				Cause:    ErrCauseCancelled,
				Endpoint: endpoint,
				Err:      err,
			}
		}
		h.rateLimiter.MarkLastFetchAsNow(host)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL.String(), nil)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:  fmt.Sprintf("failed to create request: %v", err),
			Cause:    ErrCauseInvalidEndpoint,
			Endpoint: endpoint,
			Err:      err,
		}
	}
	for key, value := range requestHeaders(fetchParam.userAgent) {
		req.Header.Set(key, value)
	}

	resp, err := h.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return FetchResult{}, &FetchError{
				Message:  err.Error(),
				Cause:    ErrCauseCancelled,
				Endpoint: endpoint,
				Err:      err,
			}
		}
		return FetchResult{}, &FetchError{
			Message:   fmt.Sprintf("request failed: %v", err),
			Retryable: true,
			Cause:     ErrCauseNetworkFailure,
			Endpoint:  endpoint,
			Err:       err,
		}
	}
	defer resp.Body.Close()

	if classified := classifyStatus(resp.StatusCode, endpoint); classified != nil {
		if h.rateLimiter != nil && classified.Retryable {
			h.rateLimiter.Backoff(host)
		}
		return FetchResult{}, classified
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return FetchResult{}, &FetchError{
			Message:    fmt.Sprintf("failed to read response body: %v", err),
			Retryable:  true,
			Cause:      ErrCauseReadResponseBodyError,
			Endpoint:   endpoint,
			StatusCode: resp.StatusCode,
			Err:        err,
		}
	}

	if h.rateLimiter != nil {
		h.rateLimiter.ResetBackoff(host)
	}

	return FetchResult{
		url:  requestURL,
		body: body,
		meta: ResponseMeta{
			statusCode:  resp.StatusCode,
			contentType: resp.Header.Get("Content-Type"),
		},
	}, nil
}

// classifyStatus returns nil for 2xx responses.
func classifyStatus(statusCode int, endpoint string) *FetchError {
	switch {
	case statusCode >= 500:
		return &FetchError{
			Message:    fmt.Sprintf("server error: %d", statusCode),
			Retryable:  true,
			Cause:      ErrCauseRequest5xx,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	case statusCode == http.StatusTooManyRequests:
		return &FetchError{
			Message:    "rate limited (429)",
			Retryable:  true,
			Cause:      ErrCauseRequestTooMany,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	case statusCode == http.StatusForbidden || statusCode == http.StatusUnauthorized:
		return &FetchError{
			Message:    fmt.Sprintf("access denied (%d)", statusCode),
			Cause:      ErrCauseRequestForbidden,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	case statusCode >= 400:
		return &FetchError{
			Message:    fmt.Sprintf("client error: %d", statusCode),
			Cause:      ErrCauseRequestClientError,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	case statusCode >= 300:
		return &FetchError{
			Message:    fmt.Sprintf("redirect error: %d", statusCode),
			Cause:      ErrCauseRedirectLimitExceeded,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	case statusCode < 200:
		return &FetchError{
			Message:    fmt.Sprintf("unexpected status: %d", statusCode),
			Cause:      ErrCauseRequestClientError,
			Endpoint:   endpoint,
			StatusCode: statusCode,
		}
	}
	return nil
}

func requestHeaders(userAgent string) map[string]string {
	return map[string]string{
		"User-Agent":      userAgent,
		"Accept":          "text/html,application/xhtml+xml,application/json;q=0.9,*/*;q=0.8",
		"Accept-Language": "en-US,en;q=0.5",
	}
}
