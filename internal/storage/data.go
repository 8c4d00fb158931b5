package storage

import "github.com/rohmanhakim/chartstats/internal/metadata"

// Artifact is a rendered output. Identity determines the file name, so the
// same identity always lands on the same path and reruns overwrite it.
type Artifact struct {
	identity  string
	extension string
	kind      metadata.ArtifactKind
	content   []byte
}

func NewArtifact(identity string, extension string, kind metadata.ArtifactKind, content []byte) Artifact {
	return Artifact{
		identity:  identity,
		extension: extension,
		kind:      kind,
		content:   content,
	}
}

func (a Artifact) Identity() string {
	return a.identity
}

func (a Artifact) Content() []byte {
	return a.content
}

// Persistence
type WriteResult struct {
	identityHash string // filename without extension
	path         string
	contentHash  string
}

func NewWriteResult(identityHash string, path string, contentHash string) WriteResult {
	return WriteResult{
		identityHash: identityHash,
		path:         path,
		contentHash:  contentHash,
	}
}

func (w WriteResult) IdentityHash() string {
	return w.identityHash
}

func (w WriteResult) Path() string {
	return w.path
}

func (w WriteResult) ContentHash() string {
	return w.contentHash
}
