package environment

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"
	"path/filepath"
)

// FileArtifactSource reads a contract's compiled bytecode from a .wasm file
// on disk, grounded on cw-orch-core's WasmPath::Path variant. Fetching a
// release asset from a github repository (WasmPath::Github) is not
// implemented: that is artifact-path search heuristics, explicitly out of
// scope.
type FileArtifactSource struct {
	path string
}

// NewFileArtifactSource validates that path exists and ends in ".wasm".
func NewFileArtifactSource(path string) (*FileArtifactSource, error) {
	if filepath.Ext(path) != ".wasm" {
		return nil, fmt.Errorf("environment: %q is not a .wasm file", path)
	}
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("environment: %w", err)
	}
	return &FileArtifactSource{path: path}, nil
}

// Wasm reads the file's full contents.
func (f *FileArtifactSource) Wasm(ctx context.Context) ([]byte, error) {
	return os.ReadFile(f.path)
}

// Checksum returns the sha256 digest of the file's contents.
func (f *FileArtifactSource) Checksum(ctx context.Context) ([]byte, error) {
	data, err := f.Wasm(ctx)
	if err != nil {
		return nil, err
	}
	sum := sha256.Sum256(data)
	return sum[:], nil
}

// InMemoryArtifactSource wraps a wasm blob already held in memory, used by
// tests and MockSim callers that build bytecode without touching the
// filesystem.
type InMemoryArtifactSource struct {
	Bytes []byte
}

// Wasm returns the wrapped bytes.
func (m *InMemoryArtifactSource) Wasm(ctx context.Context) ([]byte, error) { return m.Bytes, nil }

// Checksum returns the sha256 digest of the wrapped bytes.
func (m *InMemoryArtifactSource) Checksum(ctx context.Context) ([]byte, error) {
	sum := sha256.Sum256(m.Bytes)
	return sum[:], nil
}
