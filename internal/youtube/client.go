package youtube

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/rohmanhakim/chartstats/internal/cache"
	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/retrieve"
)

// Client queries the YouTube Data API v3 through the caching retriever.
// Parameter order is fixed because it is part of every cache key.
type Client struct {
	retriever    retrieve.Retriever
	metadataSink metadata.MetadataSink
	apiKey       string
	searchURL    string
	videosURL    string
	maxResults   int
}

func NewClient(
	retriever retrieve.Retriever,
	metadataSink metadata.MetadataSink,
	apiKey string,
	searchURL string,
	videosURL string,
	maxResults int,
) (*Client, error) {
	if apiKey == "" {
		return nil, ErrMissingAPIKey
	}
	if searchURL == "" {
		searchURL = DefaultSearchURL
	}
	if videosURL == "" {
		videosURL = DefaultVideosURL
	}
	if maxResults <= 0 {
		maxResults = DefaultMaxResults
	}
	return &Client{
		retriever:    retriever,
		metadataSink: metadataSink,
		apiKey:       apiKey,
		searchURL:    searchURL,
		videosURL:    videosURL,
		maxResults:   maxResults,
	}, nil
}

// Search returns the most viewed videos for term, each with its statistics.
func (c *Client) Search(ctx context.Context, term string) ([]Video, error) {
	params := cache.Params{}.
		With("key", c.apiKey).
		With("part", "snippet").
		With("q", term).
		With("maxResults", c.maxResults).
		With("type", "video").
		With("order", "viewCount")

	body, err := c.retriever.Fetch(ctx, c.searchURL, params)
	if err != nil {
		return nil, err
	}

	var resp searchResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return nil, c.extractionFailed("Client.Search", c.searchURL, &ExtractionError{
			Message: err.Error(),
			Cause:   ErrCauseMalformedJSON,
			Err:     err,
		})
	}

	videos := make([]Video, 0, len(resp.Items))
	for _, item := range resp.Items {
		if item.ID.VideoID == "" {
			return nil, c.extractionFailed("Client.Search", c.searchURL, &ExtractionError{
				Message: "search item without id",
				Cause:   ErrCauseMissingVideoID,
				Field:   "id.videoId",
			})
		}

		stats, err := c.Statistics(ctx, item.ID.VideoID)
		if err != nil {
			return nil, err
		}

		videos = append(videos, Video{
			Name:     item.Snippet.Title,
			VideoID:  item.ID.VideoID,
			Views:    stats.Views,
			Likes:    stats.Likes,
			Dislikes: stats.Dislikes,
		})
	}
	return videos, nil
}

// Statistics returns the counters of a single video.
func (c *Client) Statistics(ctx context.Context, videoID string) (Statistics, error) {
	params := cache.Params{}.
		With("key", c.apiKey).
		With("part", "statistics").
		With("id", videoID)

	body, err := c.retriever.Fetch(ctx, c.videosURL, params)
	if err != nil {
		return Statistics{}, err
	}

	var resp videosResponse
	if err := json.Unmarshal([]byte(body), &resp); err != nil {
		return Statistics{}, c.extractionFailed("Client.Statistics", c.videosURL, &ExtractionError{
			Message: err.Error(),
			Cause:   ErrCauseMalformedJSON,
			Err:     err,
		})
	}
	if len(resp.Items) == 0 {
		return Statistics{}, c.extractionFailed("Client.Statistics", c.videosURL, &ExtractionError{
			Message: "video " + videoID + " not found",
			Cause:   ErrCauseNoItems,
		})
	}

	raw := resp.Items[0].Statistics
	var stats Statistics
	counters := []struct {
		field  string
		value  *string
		target *int64
	}{
		{field: "viewCount", value: raw.ViewCount, target: &stats.Views},
		{field: "likeCount", value: raw.LikeCount, target: &stats.Likes},
		{field: "dislikeCount", value: raw.DislikeCount, target: &stats.Dislikes},
	}
	for _, counter := range counters {
		n, parseErr := parseCount(counter.value)
		if parseErr != nil {
			return Statistics{}, c.extractionFailed("Client.Statistics", c.videosURL, &ExtractionError{
				Message: parseErr.Error(),
				Cause:   ErrCauseInvalidStatistic,
				Field:   counter.field,
				Err:     parseErr,
			})
		}
		*counter.target = n
	}
	return stats, nil
}

// parseCount treats an absent counter as zero.
func parseCount(raw *string) (int64, error) {
	if raw == nil {
		return 0, nil
	}
	return strconv.ParseInt(*raw, 10, 64)
}

func (c *Client) extractionFailed(action string, endpoint string, err *ExtractionError) error {
	c.metadataSink.RecordError(
		time.Now(),
		"youtube",
		action,
		mapExtractionErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrURL, endpoint),
			metadata.NewAttr(metadata.AttrField, err.Field),
		},
	)
	return err
}
