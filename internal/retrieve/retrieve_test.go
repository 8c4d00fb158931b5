package retrieve_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"
	"time"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/chartstats/internal/cache"
	"github.com/rohmanhakim/chartstats/internal/fetcher"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/retrieve"
	"github.com/rohmanhakim/chartstats/pkg/retry"
	"github.com/rohmanhakim/chartstats/pkg/timeutil"
)

type lookup struct {
	key string
	hit bool
}

type recordingSink struct {
	metadata.NoopSink
	lookups []lookup
	errors  []metadata.ErrorCause
}

func (s *recordingSink) RecordCacheLookup(key string, hit bool) {
	s.lookups = append(s.lookups, lookup{key: key, hit: hit})
}

func (s *recordingSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.errors = append(s.errors, cause)
}

type storeMock struct {
	mock.Mock
}

func (m *storeMock) Load(ctx context.Context) cache.Entries {
	return m.Called(ctx).Get(0).(cache.Entries)
}

func (m *storeMock) Save(ctx context.Context, additions cache.Entries) error {
	return m.Called(ctx, additions).Error(0)
}

func retryParam() retry.RetryParam {
	return retry.NewRetryParam(0, 1, 1, timeutil.NewBackoffParam(time.Millisecond, 2, 10*time.Millisecond))
}

func countingServer(t *testing.T, status int, body string) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func typedServer(t *testing.T, contentType string, body []byte) (*httptest.Server, *int32) {
	t.Helper()
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", contentType)
		_, _ = w.Write(body)
	}))
	t.Cleanup(server.Close)
	return server, &calls
}

func newCachedFetcher(store cache.Store, sink metadata.MetadataSink, client *http.Client) *retrieve.CachedFetcher {
	return retrieve.NewCachedFetcher(store, fetcher.NewHTTPFetcher(sink, client, nil), sink, "ua", retryParam())
}

func TestCachedFetcher_Idempotence(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, "<html>chart</html>")
	sink := &recordingSink{}
	f := newCachedFetcher(cache.NewMemoryStore(), sink, server.Client())
	ctx := context.Background()
	params := cache.Params{}.With("q", "foo")

	first, err := f.Fetch(ctx, server.URL, params)
	require.NoError(t, err)
	second, err := f.Fetch(ctx, server.URL, params)
	require.NoError(t, err)

	assert.Equal(t, first, second)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	require.Len(t, sink.lookups, 2)
	assert.False(t, sink.lookups[0].hit)
	assert.True(t, sink.lookups[1].hit)
	assert.Equal(t, server.URL+"_q_foo", sink.lookups[0].key)
}

func TestCachedFetcher_HitSkipsNetwork(t *testing.T) {
	key := "https://api.example.com/search_q_foo_maxResults_5"
	store := cache.NewMemoryStoreWith(cache.Entries{key: `{"items":[]}`})

	// no server: a live request would fail
	f := newCachedFetcher(store, &recordingSink{}, nil)
	params := cache.Params{}.With("q", "foo").With("maxResults", 5)

	body, err := f.Fetch(context.Background(), "https://api.example.com/search", params)
	require.NoError(t, err)
	assert.Equal(t, `{"items":[]}`, body)
}

func TestCachedFetcher_PersistsAcrossInstances(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, "body")
	path := filepath.Join(t.TempDir(), "final_proj_cache.json")
	ctx := context.Background()

	first := newCachedFetcher(cache.NewFileStore(path, nil), &metadata.NoopSink{}, server.Client())
	_, err := first.Fetch(ctx, server.URL, nil)
	require.NoError(t, err)

	second := newCachedFetcher(cache.NewFileStore(path, nil), &metadata.NoopSink{}, server.Client())
	body, err := second.Fetch(ctx, server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, "body", body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
}

func TestCachedFetcher_CorruptCacheIsMiss(t *testing.T) {
	server, calls := countingServer(t, http.StatusOK, "fresh")
	path := filepath.Join(t.TempDir(), "cache.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0644))

	sink := &recordingSink{}
	f := newCachedFetcher(cache.NewFileStore(path, sink), sink, server.Client())

	body, err := f.Fetch(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "fresh", body)
	assert.Equal(t, int32(1), atomic.LoadInt32(calls))
	assert.Contains(t, sink.errors, metadata.CauseStorageFailure)

	reloaded := cache.NewFileStore(path, nil).Load(context.Background())
	assert.Equal(t, cache.Entries{server.URL: "fresh"}, reloaded)
}

func TestCachedFetcher_FailureNotCached(t *testing.T) {
	server, calls := countingServer(t, http.StatusInternalServerError, "boom")
	store := cache.NewMemoryStore()
	f := newCachedFetcher(store, &recordingSink{}, server.Client())
	ctx := context.Background()

	_, err := f.Fetch(ctx, server.URL, nil)
	var fetchErr *fetcher.FetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, server.URL, fetchErr.Endpoint)
	assert.Equal(t, 0, store.Size())

	_, err = f.Fetch(ctx, server.URL, nil)
	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(calls))
}

func TestCachedFetcher_SaveFailureStillReturnsBody(t *testing.T) {
	server, _ := countingServer(t, http.StatusOK, "payload")
	store := new(storeMock)
	store.On("Load", mock.Anything).Return(cache.Entries{})
	store.On("Save", mock.Anything, cache.Entries{server.URL: "payload"}).Return(errors.New("disk full"))

	sink := &recordingSink{}
	f := newCachedFetcher(store, sink, server.Client())

	body, err := f.Fetch(context.Background(), server.URL, nil)
	require.NoError(t, err)
	assert.Equal(t, "payload", body)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseStorageFailure}, sink.errors)
	store.AssertExpectations(t)
}

func TestCachedFetcher_NonUTF8BodyIsStableAcrossCacheHits(t *testing.T) {
	tests := []struct {
		name        string
		contentType string
		body        []byte
		expected    string
	}{
		{
			name:        "latin-1 declared in header",
			contentType: "text/html; charset=iso-8859-1",
			body:        []byte("caf\xe9 <b>"),
			expected:    "café <b>",
		},
		{
			name:        "latin-1 declared in meta tag",
			contentType: "text/html",
			body:        []byte(`<meta charset="iso-8859-1"><p>caf` + "\xe9</p>"),
			expected:    `<meta charset="iso-8859-1"><p>café</p>`,
		},
		{
			name:        "undeclared charset",
			contentType: "application/octet-stream",
			body:        []byte("price \x80 5"),
			expected:    "price € 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server, calls := typedServer(t, tt.contentType, tt.body)
			path := filepath.Join(t.TempDir(), "final_proj_cache.json")
			ctx := context.Background()

			miss := newCachedFetcher(cache.NewFileStore(path, nil), &metadata.NoopSink{}, server.Client())
			first, err := miss.Fetch(ctx, server.URL, nil)
			require.NoError(t, err)

			hit := newCachedFetcher(cache.NewFileStore(path, nil), &metadata.NoopSink{}, server.Client())
			second, err := hit.Fetch(ctx, server.URL, nil)
			require.NoError(t, err)

			assert.Equal(t, tt.expected, first)
			assert.Equal(t, first, second)
			assert.True(t, utf8.ValidString(first))
			assert.Equal(t, int32(1), atomic.LoadInt32(calls))
		})
	}
}

func TestCachedFetcher_UTF8BodyKeptVerbatim(t *testing.T) {
	// multibyte text past the first kilobyte must not be re-decoded
	body := "{\"pad\":\"" + strings.Repeat("a", 2048) + "\",\"title\":\"Beyoncé – Halo\"}"
	server, _ := typedServer(t, "application/json", []byte(body))
	store := cache.NewMemoryStore()
	f := newCachedFetcher(store, &metadata.NoopSink{}, server.Client())

	got, err := f.Fetch(context.Background(), server.URL, nil)
	require.NoError(t, err)

	assert.Equal(t, body, got)
	assert.Equal(t, cache.Entries{server.URL: body}, store.Load(context.Background()))
}

var _ retrieve.Retriever = (*retrieve.CachedFetcher)(nil)
