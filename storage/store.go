package storage

import (
	"context"
	"path"
	"strings"

	"github.com/wippyai/wasm-playhost/config"
	"github.com/wippyai/wasm-playhost/errors"
)

// ErrNotFound matches the error Read returns for a path that was never
// written.
var ErrNotFound = errors.ErrNotFound

// Store persists opaque blobs keyed by slash-separated paths.
type Store interface {
	Read(ctx context.Context, path string) ([]byte, error)
	Write(ctx context.Context, path string, data []byte) error
	Close() error
}

// Clean normalizes a module-supplied path: leading slashes are dropped
// and "." and ".." elements resolved without ever climbing above the
// root. Empty paths are rejected.
func Clean(p string) (string, error) {
	if strings.Contains(p, "\x00") {
		return "", errors.InvalidInput(errors.PhaseStorage, "path contains NUL")
	}
	c := strings.TrimPrefix(path.Clean("/"+p), "/")
	if c == "" {
		return "", errors.InvalidInput(errors.PhaseStorage, "empty path")
	}
	return c, nil
}

// Open creates the store selected by cfg.
func Open(cfg config.StorageConfig) (Store, error) {
	switch cfg.Backend {
	case "dir":
		return OpenDir(cfg.Path)
	case "sqlite":
		return OpenSQLite(cfg.Path)
	default:
		return nil, errors.Unsupported(errors.PhaseStorage, "storage backend "+cfg.Backend)
	}
}

func notFound(p string) error {
	return errors.NotFound(errors.PhaseStorage, "file", p)
}
