package charts

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"time"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/retrieve"
)

const DefaultChartsURL = "https://www.billboard.com/charts"

/*
Service reads Billboard chart pages through the caching retriever.

  - PopularCharts lists the charts shown on the charts index page.
  - Ranking lists the top rows of a single chart page.

Pages are requested without query parameters, so the cache key of a page
is its URL.
*/
type Service struct {
	retriever    retrieve.Retriever
	metadataSink metadata.MetadataSink
	chartsURL    url.URL
	rankLimit    int
}

func NewService(
	retriever retrieve.Retriever,
	metadataSink metadata.MetadataSink,
	chartsURL url.URL,
	rankLimit int,
) *Service {
	if rankLimit <= 0 {
		rankLimit = DefaultRankLimit
	}
	return &Service{
		retriever:    retriever,
		metadataSink: metadataSink,
		chartsURL:    chartsURL,
		rankLimit:    rankLimit,
	}
}

func (s *Service) PopularCharts(ctx context.Context) ([]Chart, error) {
	endpoint := s.chartsURL.String()
	body, err := s.retriever.Fetch(ctx, endpoint, nil)
	if err != nil {
		return nil, err
	}

	charts, err := ParseChartIndex(s.chartsURL, []byte(body))
	if err != nil {
		s.recordExtractionError("Service.PopularCharts", endpoint, err)
		return nil, err
	}
	return charts, nil
}

func (s *Service) Ranking(ctx context.Context, chart Chart) ([]Item, error) {
	if chart.URL == "" {
		return nil, fmt.Errorf("chart %q has no url", chart.Name)
	}

	body, err := s.retriever.Fetch(ctx, chart.URL, nil)
	if err != nil {
		return nil, err
	}

	items, err := ParseRanking([]byte(body), s.rankLimit)
	if err != nil {
		s.recordExtractionError("Service.Ranking", chart.URL, err)
		return nil, err
	}
	return items, nil
}

func (s *Service) recordExtractionError(action string, endpoint string, err error) {
	var extractionErr *ExtractionError
	if !errors.As(err, &extractionErr) {
		return
	}
	s.metadataSink.RecordError(
		time.Now(),
		"charts",
		action,
		mapExtractionErrorToMetadataCause(extractionErr),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, endpoint),
			metadata.NewAttr(metadata.AttrField, extractionErr.Field),
		},
	)
}
