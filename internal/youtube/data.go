package youtube

const (
	DefaultSearchURL  = "https://www.googleapis.com/youtube/v3/search"
	DefaultVideosURL  = "https://www.googleapis.com/youtube/v3/videos"
	DefaultMaxResults = 20
)

// Video is the derived engagement record for one search hit.
type Video struct {
	Name     string
	VideoID  string
	Views    int64
	Likes    int64
	Dislikes int64
}

// Statistics holds the counters of a single video. Counters the API
// omits are zero.
type Statistics struct {
	Views    int64
	Likes    int64
	Dislikes int64
}

type searchResponse struct {
	Items []searchItem `json:"items"`
}

type searchItem struct {
	ID struct {
		VideoID string `json:"videoId"`
	} `json:"id"`
	Snippet struct {
		Title string `json:"title"`
	} `json:"snippet"`
}

type videosResponse struct {
	Items []videoItem `json:"items"`
}

type videoItem struct {
	Statistics struct {
		ViewCount    *string `json:"viewCount"`
		LikeCount    *string `json:"likeCount"`
		DislikeCount *string `json:"dislikeCount"`
	} `json:"statistics"`
}
