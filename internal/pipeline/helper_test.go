package pipeline_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"github.com/rohmanhakim/chartstats/internal/charts"
	"github.com/rohmanhakim/chartstats/internal/config"
	"github.com/rohmanhakim/chartstats/internal/youtube"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

// mockFinalizer captures the run summary
type mockFinalizer struct {
	calls    int
	chart    string
	item     string
	videos   int
	artifact string
	duration time.Duration
}

func (m *mockFinalizer) RecordRunSummary(chart string, item string, videos int, artifact string, duration time.Duration) {
	m.calls++
	m.chart = chart
	m.item = item
	m.videos = videos
	m.artifact = artifact
	m.duration = duration
}

type chartSourceMock struct {
	mock.Mock
}

func (m *chartSourceMock) PopularCharts(ctx context.Context) ([]charts.Chart, error) {
	args := m.Called(ctx)
	result, _ := args.Get(0).([]charts.Chart)
	return result, args.Error(1)
}

func (m *chartSourceMock) Ranking(ctx context.Context, chart charts.Chart) ([]charts.Item, error) {
	args := m.Called(ctx, chart)
	result, _ := args.Get(0).([]charts.Item)
	return result, args.Error(1)
}

type videoSearcherMock struct {
	mock.Mock
}

func (m *videoSearcherMock) Search(ctx context.Context, term string) ([]youtube.Video, error) {
	args := m.Called(ctx, term)
	result, _ := args.Get(0).([]youtube.Video)
	return result, args.Error(1)
}

type videoStoreMock struct {
	mock.Mock
}

func (m *videoStoreMock) SaveOnce(ctx context.Context, term string, videos []youtube.Video) (bool, error) {
	args := m.Called(ctx, term, videos)
	return args.Bool(0), args.Error(1)
}

func (m *videoStoreMock) Load(ctx context.Context, term string) ([]youtube.Video, error) {
	args := m.Called(ctx, term)
	result, _ := args.Get(0).([]youtube.Video)
	return result, args.Error(1)
}

type rendererMock struct {
	mock.Mock
}

func (m *rendererMock) Render(term string, videos []youtube.Video) (string, failure.ClassifiedError) {
	args := m.Called(term, videos)
	var err failure.ClassifiedError
	if args.Get(1) != nil {
		err = args.Get(1).(failure.ClassifiedError)
	}
	return args.String(0), err
}

func buildConfig(t *testing.T, builder *config.Config) config.Config {
	t.Helper()
	cfg, err := builder.Build()
	if err != nil {
		t.Fatalf("failed to build config: %v", err)
	}
	return cfg
}

var (
	testCharts = []charts.Chart{
		{Name: "Billboard Hot 100", URL: "https://www.billboard.com/charts/hot-100"},
		{Name: "Billboard 200", URL: "https://www.billboard.com/charts/billboard-200"},
	}
	testRanking = []charts.Item{
		{Rank: "1", Name: "Blinding Lights", Info: "The Weeknd"},
		{Rank: "2", Name: "Levitating", Info: "Dua Lipa"},
	}
	testVideos = []youtube.Video{
		{Name: "Blinding Lights (Official Video)", VideoID: "a", Views: 100, Likes: 10, Dislikes: 1},
		{Name: "Blinding Lights (Audio)", VideoID: "b", Views: 50, Likes: 5, Dislikes: 0},
	}
)
