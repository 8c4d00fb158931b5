package storage_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rohmanhakim/chartstats/internal/metadata"
	"github.com/rohmanhakim/chartstats/internal/storage"
	"github.com/rohmanhakim/chartstats/pkg/hashutil"
)

type artifactSink struct {
	metadata.NoopSink
	artifacts []string
	errors    []metadata.ErrorCause
}

func (s *artifactSink) RecordArtifact(kind metadata.ArtifactKind, path string, attrs []metadata.Attribute) {
	s.artifacts = append(s.artifacts, path)
}

func (s *artifactSink) RecordError(
	observedAt time.Time,
	packageName string,
	action string,
	cause metadata.ErrorCause,
	details string,
	attrs []metadata.Attribute,
) {
	s.errors = append(s.errors, cause)
}

func TestLocalSink_Write(t *testing.T) {
	outputDir := filepath.Join(t.TempDir(), "out")
	sink := &artifactSink{}
	s := storage.NewLocalSink(sink)

	artifact := storage.NewArtifact("Blinding Lights", "html", metadata.ArtifactChart, []byte("<html></html>"))
	result, err := s.Write(outputDir, artifact, hashutil.HashAlgoSHA256)
	require.Nil(t, err)

	expectedName, nameErr := storage.FilenameFor("Blinding Lights", "html", hashutil.HashAlgoSHA256)
	require.NoError(t, nameErr)
	assert.Equal(t, filepath.Join(outputDir, expectedName), result.Path())
	assert.Len(t, result.IdentityHash(), 12)
	assert.Len(t, result.ContentHash(), 64)

	data, readErr := os.ReadFile(result.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "<html></html>", string(data))
	assert.Equal(t, []string{result.Path()}, sink.artifacts)
}

func TestLocalSink_WriteIsDeterministic(t *testing.T) {
	outputDir := t.TempDir()
	s := storage.NewLocalSink(&metadata.NoopSink{})

	first, err := s.Write(outputDir, storage.NewArtifact("term", "html", metadata.ArtifactChart, []byte("v1")), hashutil.HashAlgoBLAKE3)
	require.Nil(t, err)
	second, err := s.Write(outputDir, storage.NewArtifact("term", "html", metadata.ArtifactChart, []byte("v2")), hashutil.HashAlgoBLAKE3)
	require.Nil(t, err)

	assert.Equal(t, first.Path(), second.Path())
	assert.NotEqual(t, first.ContentHash(), second.ContentHash())

	data, readErr := os.ReadFile(second.Path())
	require.NoError(t, readErr)
	assert.Equal(t, "v2", string(data))
}

func TestLocalSink_UnsupportedHash(t *testing.T) {
	sink := &artifactSink{}
	s := storage.NewLocalSink(sink)

	_, err := s.Write(t.TempDir(), storage.NewArtifact("x", "html", metadata.ArtifactChart, nil), "md5")
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrCauseHashComputationFailed, storageErr.Cause)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseInvariantViolation}, sink.errors)
}

func TestLocalSink_OutputDirIsFile(t *testing.T) {
	dir := t.TempDir()
	blocker := filepath.Join(dir, "blocker")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0644))

	sink := &artifactSink{}
	_, err := storage.NewLocalSink(sink).Write(blocker, storage.NewArtifact("x", "html", metadata.ArtifactChart, nil), hashutil.HashAlgoSHA256)
	require.NotNil(t, err)

	var storageErr *storage.StorageError
	require.ErrorAs(t, err, &storageErr)
	assert.Equal(t, storage.ErrCausePathError, storageErr.Cause)
	assert.Equal(t, []metadata.ErrorCause{metadata.CauseStorageFailure}, sink.errors)
}

func TestFilenameFor(t *testing.T) {
	name, err := storage.FilenameFor("abc", "html", hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01.html", name)

	bare, err := storage.FilenameFor("abc", "", hashutil.HashAlgoSHA256)
	require.NoError(t, err)
	assert.Equal(t, "ba7816bf8f01", bare)
}
