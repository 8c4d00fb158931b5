package pipeline

import (
	"time"

	"github.com/rohmanhakim/chartstats/internal/charts"
	"github.com/rohmanhakim/chartstats/internal/youtube"
)

// RunSummary describes a completed run.
type RunSummary struct {
	Chart        charts.Chart
	Item         charts.Item
	Videos       []youtube.Video
	ArtifactPath string
	Duration     time.Duration
}
