package videodb

import (
	"context"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/youtube"
)

/*
Store persists derived video statistics per search term.

  - The first save for a term inserts every row in one transaction.
  - Later saves for the same term are ignored, so reruns never duplicate rows.
  - Terms are bound as query parameters, never interpolated into SQL.
*/
type Store struct {
	db           *gorm.DB
	metadataSink metadata.MetadataSink
}

// Open creates or opens the SQLite database at path and migrates the schema.
func Open(path string, metadataSink metadata.MetadataSink) (*Store, error) {
	if path == "" {
		path = DefaultDBPath
	}

	db, err := gorm.Open(sqlite.Open(path), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Cause: ErrCauseOpenFailed, Err: err}
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, &StoreError{Message: err.Error(), Cause: ErrCauseOpenFailed, Err: err}
	}
	// sqlite allows one writer; a single connection also keeps :memory: databases shared
	sqlDB.SetMaxOpenConns(1)

	if err := db.AutoMigrate(&videoRow{}); err != nil {
		_ = sqlDB.Close()
		return nil, &StoreError{Message: err.Error(), Cause: ErrCauseOpenFailed, Err: err}
	}

	return &Store{db: db, metadataSink: metadataSink}, nil
}

// SaveOnce stores videos under term unless rows for term already exist.
// It reports whether rows were inserted.
func (s *Store) SaveOnce(ctx context.Context, term string, videos []youtube.Video) (bool, error) {
	inserted := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&videoRow{}).Where("search_term = ?", term).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 || len(videos) == 0 {
			return nil
		}

		rows := make([]videoRow, 0, len(videos))
		for _, v := range videos {
			rows = append(rows, toRow(term, v))
		}
		if err := tx.Create(&rows).Error; err != nil {
			return err
		}
		inserted = true
		return nil
	})
	if err != nil {
		storeErr := &StoreError{Message: err.Error(), Cause: ErrCauseWriteFailed, Term: term, Err: err}
		s.recordError("Store.SaveOnce", storeErr)
		return false, storeErr
	}
	return inserted, nil
}

// Load returns the videos stored under term in insertion order.
func (s *Store) Load(ctx context.Context, term string) ([]youtube.Video, error) {
	var rows []videoRow
	if err := s.db.WithContext(ctx).Where("search_term = ?", term).Order("id").Find(&rows).Error; err != nil {
		storeErr := &StoreError{Message: err.Error(), Cause: ErrCauseReadFailed, Term: term, Err: err}
		s.recordError("Store.Load", storeErr)
		return nil, storeErr
	}

	videos := make([]youtube.Video, 0, len(rows))
	for _, r := range rows {
		videos = append(videos, r.toVideo())
	}
	return videos, nil
}

// Terms lists every stored search term, oldest first.
func (s *Store) Terms(ctx context.Context) ([]string, error) {
	var terms []string
	err := s.db.WithContext(ctx).
		Model(&videoRow{}).
		Select("search_term").
		Group("search_term").
		Order("MIN(id)").
		Pluck("search_term", &terms).Error
	if err != nil {
		storeErr := &StoreError{Message: err.Error(), Cause: ErrCauseReadFailed, Err: err}
		s.recordError("Store.Terms", storeErr)
		return nil, storeErr
	}
	return terms, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) recordError(action string, err *StoreError) {
	if s.metadataSink == nil {
		return
	}
	s.metadataSink.RecordError(
		time.Now(),
		"videodb",
		action,
		mapStoreErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrTerm, err.Term),
		},
	)
}
