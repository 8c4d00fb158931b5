package pipeline

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/rohmanhakim/chartstats/internal/charts"
	"github.com/rohmanhakim/chartstats/internal/config"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/youtube"
	"github.com/rohmanhakim/chartstats/pkg/failure"
)

/*
Pipeline runs the fixed lookup sequence of a chartstats run:

 1. popular charts, pick chart N
 2. ranking of that chart, print it, pick item M
 3. YouTube search on the item name, statistics for every video
 4. store the videos once per search term, read them back
 5. render the comparison chart
 6. print the elapsed time

Steps run strictly one after another. Any error aborts the run and is
returned unchanged; metadata has already been recorded by the step that
failed.
*/
type Pipeline struct {
	metadataSink metadata.MetadataSink
	runFinalizer metadata.RunFinalizer
	charts       ChartSource
	videos       VideoSearcher
	store        VideoStore
	renderer     ChartRenderer
	out          io.Writer
	chartIndex   int
	rankIndex    int
	closers      []func() error
}

type ChartSource interface {
	PopularCharts(ctx context.Context) ([]charts.Chart, error)
	Ranking(ctx context.Context, chart charts.Chart) ([]charts.Item, error)
}

type VideoSearcher interface {
	Search(ctx context.Context, term string) ([]youtube.Video, error)
}

type VideoStore interface {
	SaveOnce(ctx context.Context, term string, videos []youtube.Video) (bool, error)
	Load(ctx context.Context, term string) ([]youtube.Video, error)
}

type ChartRenderer interface {
	Render(term string, videos []youtube.Video) (string, failure.ClassifiedError)
}

// NewPipelineWithDeps creates a Pipeline with injected dependencies.
// Only the chart and rank indexes are read from cfg.
func NewPipelineWithDeps(
	cfg config.Config,
	runFinalizer metadata.RunFinalizer,
	metadataSink metadata.MetadataSink,
	chartSource ChartSource,
	videoSearcher VideoSearcher,
	videoStore VideoStore,
	renderer ChartRenderer,
	out io.Writer,
) *Pipeline {
	if out == nil {
		out = io.Discard
	}
	return &Pipeline{
		metadataSink: metadataSink,
		runFinalizer: runFinalizer,
		charts:       chartSource,
		videos:       videoSearcher,
		store:        videoStore,
		renderer:     renderer,
		out:          out,
		chartIndex:   cfg.ChartIndex(),
		rankIndex:    cfg.RankIndex(),
	}
}

func (p *Pipeline) Run(ctx context.Context) (summary RunSummary, err error) {
	startTime := time.Now()

	defer func() {
		summary.Duration = time.Since(startTime)
		p.runFinalizer.RecordRunSummary(
			summary.Chart.Name,
			summary.Item.Name,
			len(summary.Videos),
			summary.ArtifactPath,
			summary.Duration,
		)
	}()

	// 1. Popular charts
	popular, err := p.charts.PopularCharts(ctx)
	if err != nil {
		return summary, err
	}
	for i, chart := range popular {
		fmt.Fprintln(p.out, chart.Listing(i+1))
	}
	if p.chartIndex < 1 || p.chartIndex > len(popular) {
		return summary, p.invalidSelection("chart", p.chartIndex, len(popular))
	}
	summary.Chart = popular[p.chartIndex-1]
	fmt.Fprintf(p.out, "Chart: %s\n", summary.Chart.Name)

	// 2. Ranking
	ranking, err := p.charts.Ranking(ctx, summary.Chart)
	if err != nil {
		return summary, err
	}
	for _, item := range ranking {
		fmt.Fprintln(p.out, item.Content())
	}
	if p.rankIndex < 1 || p.rankIndex > len(ranking) {
		return summary, p.invalidSelection("rank", p.rankIndex, len(ranking))
	}
	summary.Item = ranking[p.rankIndex-1]
	term := summary.Item.Name

	// 3. Video search
	found, err := p.videos.Search(ctx, term)
	if err != nil {
		return summary, err
	}

	// 4. Derived records
	if _, err := p.store.SaveOnce(ctx, term, found); err != nil {
		return summary, err
	}
	stored, err := p.store.Load(ctx, term)
	if err != nil {
		return summary, err
	}
	summary.Videos = stored

	// 5. Chart artifact
	path, renderErr := p.renderer.Render(term, stored)
	if renderErr != nil {
		return summary, renderErr
	}
	summary.ArtifactPath = path
	fmt.Fprintf(p.out, "Chart written to %s\n", path)

	// 6. Elapsed time
	fmt.Fprintf(p.out, "%.2fs\n", time.Since(startTime).Seconds())

	return summary, nil
}

// Close releases the resources opened by NewPipeline.
func (p *Pipeline) Close() error {
	var firstErr error
	for i := len(p.closers) - 1; i >= 0; i-- {
		if err := p.closers[i](); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	p.closers = nil
	return firstErr
}

func (p *Pipeline) invalidSelection(what string, index int, size int) error {
	err := selectionError(what, index, size)
	p.metadataSink.RecordError(
		time.Now(),
		"pipeline",
		"Pipeline.Run",
		metadata.CauseInvariantViolation,
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrField, what+"Index"),
		},
	)
	return err
}
