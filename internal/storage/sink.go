package storage

import (
	"errors"
	"path/filepath"
	"time"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/pkg/failure"
	"github.com/rohmanhakim/chartstats/pkg/fileutil"
	"github.com/rohmanhakim/chartstats/pkg/hashutil"
)

/*
Responsibilities
- Persist rendered artifacts
- Ensure deterministic filenames

Output Characteristics
- Stable directory layout: <outputDir>/<hash12>.<ext>
- Idempotent writes
- Overwrite-safe reruns
*/

const identityHashLength = 12

type Sink interface {
	Write(
		outputDir string,
		artifact Artifact,
		hashAlgo hashutil.HashAlgo,
	) (WriteResult, failure.ClassifiedError)
}

type LocalSink struct {
	metadataSink metadata.MetadataSink
}

func NewLocalSink(metadataSink metadata.MetadataSink) *LocalSink {
	return &LocalSink{
		metadataSink: metadataSink,
	}
}

func (s *LocalSink) Write(
	outputDir string,
	artifact Artifact,
	hashAlgo hashutil.HashAlgo,
) (WriteResult, failure.ClassifiedError) {
	writeResult, err := write(outputDir, artifact, hashAlgo)
	if err != nil {
		s.metadataSink.RecordError(
			time.Now(),
			"storage",
			"LocalSink.Write",
			mapStorageErrorToMetadataCause(err),
			err.Error(),
			[]metadata.Attribute{
				metadata.NewAttr(metadata.AttrTerm, artifact.identity),
				metadata.NewAttr(metadata.AttrWritePath, err.Path),
			},
		)
		return WriteResult{}, err
	}

	s.metadataSink.RecordArtifact(
		artifact.kind,
		writeResult.Path(),
		[]metadata.Attribute{
			metadata.NewAttr(metadata.AttrWritePath, writeResult.Path()),
			metadata.NewAttr(metadata.AttrTerm, artifact.identity),
		},
	)
	return writeResult, nil
}

// FilenameFor returns the file name an artifact with identity would get.
func FilenameFor(identity string, extension string, hashAlgo hashutil.HashAlgo) (string, error) {
	identityHash, err := hashutil.ShortHash(identity, hashAlgo, identityHashLength)
	if err != nil {
		return "", err
	}
	if extension == "" {
		return identityHash, nil
	}
	return identityHash + "." + extension, nil
}

func write(outputDir string, artifact Artifact, hashAlgo hashutil.HashAlgo) (WriteResult, *StorageError) {
	filename, err := FilenameFor(artifact.identity, artifact.extension, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}

	contentHash, err := hashutil.HashBytes(artifact.content, hashAlgo)
	if err != nil {
		return WriteResult{}, &StorageError{
			Message: err.Error(),
			Cause:   ErrCauseHashComputationFailed,
		}
	}

	if ensureErr := fileutil.EnsureDir(outputDir); ensureErr != nil {
		return WriteResult{}, &StorageError{
			Message: ensureErr.Error(),
			Cause:   ErrCausePathError,
			Path:    outputDir,
		}
	}

	fullPath := filepath.Join(outputDir, filename)
	if writeErr := fileutil.WriteFileAtomic(fullPath, artifact.content, 0644); writeErr != nil {
		cause := ErrCauseWriteFailure
		retryable := false
		var fileErr *fileutil.FileError
		if errors.As(writeErr, &fileErr) && fileErr.Cause == fileutil.ErrCauseDiskFull {
			cause = ErrCauseDiskFull
			retryable = true
		}
		return WriteResult{}, &StorageError{
			Message:   writeErr.Error(),
			Retryable: retryable,
			Cause:     cause,
			Path:      fullPath,
		}
	}

	return NewWriteResult(filename[:identityHashLength], fullPath, contentHash), nil
}
