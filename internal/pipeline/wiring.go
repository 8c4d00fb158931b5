package pipeline

import (
	"fmt"
	"io"
	"net/http"

	"github.com/rohmanhakim/chartstats/internal/cache"
	"github.com/rohmanhakim/chartstats/internal/charts"
	"github.com/rohmanhakim/chartstats/internal/config"
	"github.com/rohmanhakim/chartstats/internal/fetcher"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/render"
	"github.com/rohmanhakim/chartstats/internal/retrieve"
	"github.com/rohmanhakim/chartstats/internal/storage"
	"github.com/rohmanhakim/chartstats/internal/videodb"
	"github.com/rohmanhakim/chartstats/internal/youtube"
	"github.com/rohmanhakim/chartstats/pkg/limiter"
	"github.com/rohmanhakim/chartstats/pkg/retry"
	"github.com/rohmanhakim/chartstats/pkg/timeutil"
)

// NewPipeline wires the production components described by cfg.
// The returned Pipeline must be closed by the caller.
func NewPipeline(cfg config.Config, recorder *metadata.Recorder, out io.Writer) (*Pipeline, error) {
	store, closeStore, err := OpenCacheStore(cfg, recorder)
	if err != nil {
		return nil, err
	}
	retriever := NewRetriever(cfg, store, recorder)

	chartService := NewChartService(cfg, retriever, recorder)

	searchURL := cfg.SearchURL()
	videosURL := cfg.VideosURL()
	youtubeClient, err := youtube.NewClient(
		retriever,
		recorder,
		cfg.APIKey(),
		searchURL.String(),
		videosURL.String(),
		cfg.MaxResults(),
	)
	if err != nil {
		_ = closeStore()
		return nil, fmt.Errorf("%w: %s", config.ErrInvalidConfig, err.Error())
	}

	videoStore, err := videodb.Open(cfg.DBPath(), recorder)
	if err != nil {
		_ = closeStore()
		return nil, err
	}

	renderer := render.NewRenderer(
		storage.NewLocalSink(recorder),
		cfg.OutputDir(),
		cfg.HashAlgo(),
		cfg.IncludeViews(),
	)

	p := NewPipelineWithDeps(cfg, recorder, recorder, chartService, youtubeClient, videoStore, renderer, out)
	p.closers = append(p.closers, closeStore, videoStore.Close)
	return p, nil
}

// OpenCacheStore returns the cache.Store selected by cfg and a function
// releasing it.
func OpenCacheStore(cfg config.Config, metadataSink metadata.MetadataSink) (cache.Store, func() error, error) {
	noop := func() error { return nil }
	switch cfg.CacheBackend() {
	case config.CacheBackendFile:
		return cache.NewFileStore(cfg.CacheFile(), metadataSink), noop, nil
	case config.CacheBackendRedis:
		store := cache.NewRedisStore(cache.DialRedis(cfg.RedisAddr()), cfg.RedisKey(), metadataSink)
		return store, store.Close, nil
	case config.CacheBackendMemory:
		return cache.NewMemoryStore(), noop, nil
	default:
		return nil, nil, fmt.Errorf("%w: unknown cacheBackend %q", config.ErrInvalidConfig, cfg.CacheBackend())
	}
}

// NewRetriever builds the caching retriever: a rate limited HTTP fetcher
// with the configured retry policy behind store.
func NewRetriever(cfg config.Config, store cache.Store, metadataSink metadata.MetadataSink) *retrieve.CachedFetcher {
	backoffParam := timeutil.NewBackoffParam(
		cfg.BackoffInitialDuration(),
		cfg.BackoffMultiplier(),
		cfg.BackoffMaxDuration(),
	)
	rateLimiter := limiter.NewHostRateLimiter(
		cfg.BaseDelay(),
		cfg.Jitter(),
		cfg.RandomSeed(),
		backoffParam,
	)
	httpFetcher := fetcher.NewHTTPFetcher(
		metadataSink,
		&http.Client{Timeout: cfg.Timeout()},
		rateLimiter,
	)
	retryParam := retry.NewRetryParam(
		cfg.Jitter(),
		cfg.RandomSeed(),
		cfg.MaxAttempt(),
		backoffParam,
	)
	return retrieve.NewCachedFetcher(store, httpFetcher, metadataSink, cfg.UserAgent(), retryParam)
}

func NewChartService(cfg config.Config, retriever retrieve.Retriever, metadataSink metadata.MetadataSink) *charts.Service {
	return charts.NewService(retriever, metadataSink, cfg.ChartsURL(), cfg.RankLimit())
}
