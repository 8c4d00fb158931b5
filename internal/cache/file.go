package cache

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"sync"
	"time"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/fileutil"
)

const DefaultCacheFile = "final_proj_cache.json"

// FileStore persists the whole cache as a single JSON object on disk.
// Saves within one process are serialized; concurrent processes sharing the
// same file may still lose each other's additions.
type FileStore struct {
	mu           sync.Mutex
	path         string
	metadataSink metadata.MetadataSink
}

func NewFileStore(path string, metadataSink metadata.MetadataSink) *FileStore {
	if path == "" {
		path = DefaultCacheFile
	}
	return &FileStore{
		path:         path,
		metadataSink: metadataSink,
	}
}

func (s *FileStore) Path() string {
	return s.path
}

func (s *FileStore) Load(ctx context.Context) Entries {
	entries, err := s.read()
	if err != nil {
		s.recordError("FileStore.Load", err)
		return Entries{}
	}
	return entries
}

func (s *FileStore) Save(ctx context.Context, additions Entries) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	merged, err := s.read()
	if err != nil {
		s.recordError("FileStore.Save", err)
		merged = Entries{}
	}
	for k, v := range additions {
		merged[k] = v
	}

	data, marshalErr := json.Marshal(merged)
	if marshalErr != nil {
		cacheErr := &CacheError{Message: marshalErr.Error(), Cause: ErrCauseWriteFailed, Err: marshalErr}
		s.recordError("FileStore.Save", cacheErr)
		return cacheErr
	}

	if writeErr := fileutil.WriteFileAtomic(s.path, data, 0644); writeErr != nil {
		cacheErr := &CacheError{Message: writeErr.Error(), Cause: ErrCauseWriteFailed, Err: writeErr}
		s.recordError("FileStore.Save", cacheErr)
		return cacheErr
	}
	return nil
}

// read returns an empty mapping when the file does not exist yet.
func (s *FileStore) read() (Entries, *CacheError) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Entries{}, nil
		}
		return nil, &CacheError{Message: err.Error(), Cause: ErrCauseUnavailable, Err: err}
	}

	var entries Entries
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, &CacheError{Message: err.Error(), Cause: ErrCauseUnavailable, Err: err}
	}
	if entries == nil {
		entries = Entries{}
	}
	return entries, nil
}

func (s *FileStore) recordError(action string, err *CacheError) {
	if s.metadataSink == nil {
		return
	}
	s.metadataSink.RecordError(
		time.Now(),
		"cache",
		action,
		mapCacheErrorToMetadataCause(err),
		err.Error(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrBackend, "file"),
			metadata.NewAttr(metadata.AttrPath, s.path),
		},
	)
}
