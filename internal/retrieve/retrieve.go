package retrieve

import (
	"context"
	"time"

	"github.com/rohmanhakim/chartstats/internal/cache"
	"github.com/rohmanhakim/chartstats/internal/fetcher"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/retry"
)

// Retriever returns the body for a request, from cache when possible.
type Retriever interface {
	Fetch(ctx context.Context, endpoint string, params cache.Params) (string, error)
}

/*
CachedFetcher is the fetch-or-retrieve orchestrator.

  - The request identity is cache.BuildKey(endpoint, params).
  - A hit returns the stored body without touching the network.
  - A miss performs a live GET, decodes the body to UTF-8, saves {key: body}
    and returns body, so later hits return the same string.
  - Failed requests are never cached.
  - A failed save is reported to the metadata sink; the body is still returned.

The store is loaded on every call, so entries written by an earlier process
are visible without restarting.
*/
type CachedFetcher struct {
	store        cache.Store
	fetcher      fetcher.Fetcher
	metadataSink metadata.MetadataSink
	userAgent    string
	retryParam   retry.RetryParam
}

func NewCachedFetcher(
	store cache.Store,
	f fetcher.Fetcher,
	metadataSink metadata.MetadataSink,
	userAgent string,
	retryParam retry.RetryParam,
) *CachedFetcher {
	return &CachedFetcher{
		store:        store,
		fetcher:      f,
		metadataSink: metadataSink,
		userAgent:    userAgent,
		retryParam:   retryParam,
	}
}

func (c *CachedFetcher) Fetch(ctx context.Context, endpoint string, params cache.Params) (string, error) {
	key := cache.BuildKey(endpoint, params)

	entries := c.store.Load(ctx)
	if body, hit := entries[key]; hit {
		c.metadataSink.RecordCacheLookup(key, true)
		return body, nil
	}
	c.metadataSink.RecordCacheLookup(key, false)

	result, err := c.fetcher.Fetch(ctx, fetcher.NewFetchParam(endpoint, params, c.userAgent), c.retryParam)
	if err != nil {
		return "", err
	}
	body := decodeBody(result.Body(), result.ContentType())

	if saveErr := c.store.Save(ctx, cache.Entries{key: body}); saveErr != nil {
		c.metadataSink.RecordError(
			time.Now(),
			"retrieve",
			"CachedFetcher.Fetch",
			metadata.CauseStorageFailure,
			saveErr.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrCacheKey, key),
			},
		)
	}

	return body, nil
}
