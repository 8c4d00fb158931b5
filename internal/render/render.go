package render

import (
	"bytes"
	"fmt"
	"io"

	echarts "github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/storage"
	"github.com/rohmanhakim/chartstats/internal/youtube"
	"github.com/rohmanhakim/chartstats/pkg/failure"
	"github.com/rohmanhakim/chartstats/pkg/hashutil"
)

const (
	SeriesLikes    = "Likes"
	SeriesDislikes = "Dislikes"
	SeriesViews    = "Views"
)

// Comparison is a grouped bar chart with one group per video.
type Comparison struct {
	Title  string
	Labels []string
	Series []Series
}

type Series struct {
	Name   string
	Values []int64
}

// NewComparison lays out likes and dislikes per video, plus views when
// includeViews is set.
func NewComparison(term string, videos []youtube.Video, includeViews bool) Comparison {
	labels := make([]string, 0, len(videos))
	likes := make([]int64, 0, len(videos))
	dislikes := make([]int64, 0, len(videos))
	views := make([]int64, 0, len(videos))
	for _, v := range videos {
		labels = append(labels, v.Name)
		likes = append(likes, v.Likes)
		dislikes = append(dislikes, v.Dislikes)
		views = append(views, v.Views)
	}

	series := []Series{
		{Name: SeriesLikes, Values: likes},
		{Name: SeriesDislikes, Values: dislikes},
	}
	if includeViews {
		series = append(series, Series{Name: SeriesViews, Values: views})
	}

	return Comparison{
		Title:  term,
		Labels: labels,
		Series: series,
	}
}

// WriteHTML renders c as a standalone HTML page.
func (c Comparison) WriteHTML(w io.Writer) error {
	bar := echarts.NewBar()
	bar.SetGlobalOptions(
		echarts.WithInitializationOpts(opts.Initialization{
			PageTitle: c.Title,
			Width:     "1200px",
			Height:    "600px",
		}),
		echarts.WithTitleOpts(opts.Title{
			Title:    c.Title,
			Subtitle: "YouTube engagement by video",
		}),
	)

	bar.SetXAxis(c.Labels)
	for _, s := range c.Series {
		data := make([]opts.BarData, 0, len(s.Values))
		for _, v := range s.Values {
			data = append(data, opts.BarData{Value: v})
		}
		bar.AddSeries(s.Name, data)
	}

	return bar.Render(w)
}

// Renderer turns stored video statistics into a chart artifact on disk.
type Renderer struct {
	sink         storage.Sink
	outputDir    string
	hashAlgo     hashutil.HashAlgo
	includeViews bool
}

func NewRenderer(sink storage.Sink, outputDir string, hashAlgo hashutil.HashAlgo, includeViews bool) *Renderer {
	return &Renderer{
		sink:         sink,
		outputDir:    outputDir,
		hashAlgo:     hashAlgo,
		includeViews: includeViews,
	}
}

// Render writes the comparison chart for term and returns its path.
func (r *Renderer) Render(term string, videos []youtube.Video) (string, failure.ClassifiedError) {
	var buf bytes.Buffer
	if err := NewComparison(term, videos, r.includeViews).WriteHTML(&buf); err != nil {
		return "", &RenderError{Message: fmt.Sprintf("render %q: %v", term, err)}
	}

	artifact := storage.NewArtifact(term, "html", metadata.ArtifactChart, buf.Bytes())
	result, err := r.sink.Write(r.outputDir, artifact, r.hashAlgo)
	if err != nil {
		return "", err
	}
	return result.Path(), nil
}

type RenderError struct {
	Message string
}

func (e *RenderError) Error() string {
	return "render error: " + e.Message
}

func (e *RenderError) Severity() failure.Severity {
	return failure.SeverityFatal
}
