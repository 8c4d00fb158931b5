package pipeline_test

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/chartstats/internal/charts"
	"github.com/rohmanhakim/chartstats/internal/config"
	"github.com/rohmanhakim/chartstats/internal/fetcher"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/pipeline"
	"github.com/rohmanhakim/chartstats/internal/render"
)

type pipelineMocks struct {
	charts    *chartSourceMock
	searcher  *videoSearcherMock
	store     *videoStoreMock
	renderer  *rendererMock
	finalizer *mockFinalizer
	out       *bytes.Buffer
}

func newPipelineForTest(t *testing.T, cfg config.Config) (*pipeline.Pipeline, pipelineMocks) {
	t.Helper()
	m := pipelineMocks{
		charts:    new(chartSourceMock),
		searcher:  new(videoSearcherMock),
		store:     new(videoStoreMock),
		renderer:  new(rendererMock),
		finalizer: &mockFinalizer{},
		out:       &bytes.Buffer{},
	}
	p := pipeline.NewPipelineWithDeps(
		cfg,
		m.finalizer,
		&metadata.NoopSink{},
		m.charts,
		m.searcher,
		m.store,
		m.renderer,
		m.out,
	)
	return p, m
}

func TestRun_FullSequence(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault().WithChartIndex(2).WithRankIndex(1))
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
	m.charts.On("Ranking", ctx, testCharts[1]).Return(testRanking, nil)
	m.searcher.On("Search", ctx, "Blinding Lights").Return(testVideos, nil)
	m.store.On("SaveOnce", ctx, "Blinding Lights", testVideos).Return(true, nil)
	m.store.On("Load", ctx, "Blinding Lights").Return(testVideos, nil)
	m.renderer.On("Render", "Blinding Lights", testVideos).Return("output/abc.html", nil)

	summary, err := p.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, testCharts[1], summary.Chart)
	assert.Equal(t, testRanking[0], summary.Item)
	assert.Equal(t, testVideos, summary.Videos)
	assert.Equal(t, "output/abc.html", summary.ArtifactPath)

	output := m.out.String()
	assert.Contains(t, output, "[1]: Billboard Hot 100\n[2]: Billboard 200\nChart: Billboard 200\n")
	assert.Contains(t, output, "rank1: Blinding Lights (The Weeknd)\n")
	assert.Contains(t, output, "rank2: Levitating (Dua Lipa)\n")
	assert.Regexp(t, `(?m)^\d+\.\d{2}s$`, output)

	assert.Equal(t, 1, m.finalizer.calls)
	assert.Equal(t, "Billboard 200", m.finalizer.chart)
	assert.Equal(t, "Blinding Lights", m.finalizer.item)
	assert.Equal(t, 2, m.finalizer.videos)
	assert.Equal(t, "output/abc.html", m.finalizer.artifact)

	m.charts.AssertExpectations(t)
	m.searcher.AssertExpectations(t)
	m.store.AssertExpectations(t)
	m.renderer.AssertExpectations(t)
}

func TestRun_RendersStoredRowsNotSearchResults(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault())
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()
	stored := testVideos[:1]

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
	m.charts.On("Ranking", ctx, testCharts[0]).Return(testRanking, nil)
	m.searcher.On("Search", ctx, "Blinding Lights").Return(testVideos, nil)
	m.store.On("SaveOnce", ctx, "Blinding Lights", testVideos).Return(false, nil)
	m.store.On("Load", ctx, "Blinding Lights").Return(stored, nil)
	m.renderer.On("Render", "Blinding Lights", stored).Return("out.html", nil)

	summary, err := p.Run(ctx)

	require.NoError(t, err)
	assert.Equal(t, stored, summary.Videos)
	m.renderer.AssertExpectations(t)
}

func TestRun_IndexOutOfRange(t *testing.T) {
	tests := []struct {
		name       string
		chartIndex int
		rankIndex  int
	}{
		{"chart index beyond list", 3, 1},
		{"rank index beyond list", 1, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := buildConfig(t, config.WithDefault().WithChartIndex(tt.chartIndex).WithRankIndex(tt.rankIndex))
			p, m := newPipelineForTest(t, cfg)
			ctx := context.Background()

			m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
			m.charts.On("Ranking", ctx, mock.Anything).Return(testRanking, nil)

			_, err := p.Run(ctx)

			assert.ErrorIs(t, err, config.ErrInvalidConfig)
			m.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
			assert.Equal(t, 1, m.finalizer.calls)
		})
	}
}

func TestRun_ChartListPrintedBeforeSelection(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault().WithChartIndex(3))
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)

	_, err := p.Run(ctx)

	require.ErrorIs(t, err, config.ErrInvalidConfig)
	assert.Equal(t, "[1]: Billboard Hot 100\n[2]: Billboard 200\n", m.out.String())
	m.charts.AssertNotCalled(t, "Ranking", mock.Anything, mock.Anything)
}

func TestRun_FetchFailureAborts(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault())
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()
	fetchErr := &fetcher.FetchError{Message: "connection refused", Cause: fetcher.ErrCauseNetworkFailure}

	m.charts.On("PopularCharts", ctx).Return(nil, fetchErr)

	summary, err := p.Run(ctx)

	var target *fetcher.FetchError
	require.True(t, errors.As(err, &target))
	assert.Empty(t, summary.Chart.Name)
	m.charts.AssertNotCalled(t, "Ranking", mock.Anything, mock.Anything)
	assert.Equal(t, 1, m.finalizer.calls)
	assert.Empty(t, m.finalizer.artifact)
}

func TestRun_ExtractionFailureAborts(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault())
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()
	extractErr := &charts.ExtractionError{Message: "no ranking", Cause: charts.ErrCauseNoRankingList}

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
	m.charts.On("Ranking", ctx, testCharts[0]).Return(nil, extractErr)

	_, err := p.Run(ctx)

	assert.ErrorIs(t, err, extractErr)
	m.searcher.AssertNotCalled(t, "Search", mock.Anything, mock.Anything)
}

func TestRun_SearchFailureSkipsStore(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault())
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()
	searchErr := errors.New("quota exceeded")

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
	m.charts.On("Ranking", ctx, testCharts[0]).Return(testRanking, nil)
	m.searcher.On("Search", ctx, "Blinding Lights").Return(nil, searchErr)

	_, err := p.Run(ctx)

	assert.ErrorIs(t, err, searchErr)
	m.store.AssertNotCalled(t, "SaveOnce", mock.Anything, mock.Anything, mock.Anything)
}

func TestRun_RenderFailure(t *testing.T) {
	cfg := buildConfig(t, config.WithDefault())
	p, m := newPipelineForTest(t, cfg)
	ctx := context.Background()
	renderErr := &render.RenderError{Message: "boom"}

	m.charts.On("PopularCharts", ctx).Return(testCharts, nil)
	m.charts.On("Ranking", ctx, testCharts[0]).Return(testRanking, nil)
	m.searcher.On("Search", ctx, "Blinding Lights").Return(testVideos, nil)
	m.store.On("SaveOnce", ctx, "Blinding Lights", testVideos).Return(true, nil)
	m.store.On("Load", ctx, "Blinding Lights").Return(testVideos, nil)
	m.renderer.On("Render", "Blinding Lights", testVideos).Return("", renderErr)

	summary, err := p.Run(ctx)

	assert.ErrorIs(t, err, renderErr)
	assert.Empty(t, summary.ArtifactPath)
	assert.Equal(t, 2, m.finalizer.videos)
	assert.NotContains(t, m.out.String(), "Chart written to")
}
