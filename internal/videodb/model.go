package videodb

import (
	"time"

	"github.com/rohmanhakim/chartstats/internal/youtube"
)

const DefaultDBPath = "videos.sqlite"

// videoRow is one persisted search hit. Rows of the same search term form
// the per-term table.
type videoRow struct {
	ID         uint   `gorm:"primaryKey;autoIncrement"`
	SearchTerm string `gorm:"index;not null"`
	VideoName  string `gorm:"not null"`
	VideoID    string `gorm:"not null"`
	Views      int64  `gorm:"not null"`
	Likes      int64  `gorm:"not null"`
	Dislikes   int64  `gorm:"not null"`
	CreatedAt  time.Time
}

func (videoRow) TableName() string {
	return "videos"
}

func toRow(term string, v youtube.Video) videoRow {
	return videoRow{
		SearchTerm: term,
		VideoName:  v.Name,
		VideoID:    v.VideoID,
		Views:      v.Views,
		Likes:      v.Likes,
		Dislikes:   v.Dislikes,
	}
}

func (r videoRow) toVideo() youtube.Video {
	return youtube.Video{
		Name:     r.VideoName,
		VideoID:  r.VideoID,
		Views:    r.Views,
		Likes:    r.Likes,
		Dislikes: r.Dislikes,
	}
}
