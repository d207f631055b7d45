package storage

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	stderrors "errors"
	"io/fs"
	"os"
	"path"

	"go.uber.org/zap"

	"github.com/wippyai/wasm-playhost/errors"
)

// DirStore keeps each blob in a file under a root directory. Access goes
// through os.Root, so symlinks cannot lead outside it either.
type DirStore struct {
	root *os.Root
	dir  string
}

// OpenDir opens (creating if needed) a directory store at dir.
func OpenDir(dir string) (*DirStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "create store directory")
	}
	root, err := os.OpenRoot(dir)
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "open store directory")
	}
	Logger().Debug("directory store opened", zap.String("dir", dir))
	return &DirStore{root: root, dir: dir}, nil
}

// Dir returns the root directory.
func (s *DirStore) Dir() string { return s.dir }

func (s *DirStore) Read(ctx context.Context, p string) ([]byte, error) {
	name, err := Clean(p)
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	data, err := s.root.ReadFile(name)
	if stderrors.Is(err, fs.ErrNotExist) {
		return nil, notFound(p)
	}
	if err != nil {
		return nil, errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "read "+name)
	}
	return data, nil
}

// Write replaces the blob at p atomically: the data goes to a temporary
// sibling first and is renamed into place.
func (s *DirStore) Write(ctx context.Context, p string, data []byte) error {
	name, err := Clean(p)
	if err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if dir := path.Dir(name); dir != "." {
		if err := s.root.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "create "+dir)
		}
	}

	var suffix [6]byte
	_, _ = rand.Read(suffix[:])
	tmp := name + ".tmp-" + hex.EncodeToString(suffix[:])
	if err := s.root.WriteFile(tmp, data, 0o644); err != nil {
		return errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "write "+name)
	}
	if err := s.root.Rename(tmp, name); err != nil {
		_ = s.root.Remove(tmp)
		return errors.Wrap(errors.PhaseStorage, errors.KindOperationFailed, err, "rename "+name)
	}
	return nil
}

func (s *DirStore) Close() error {
	return s.root.Close()
}

var _ Store = (*DirStore)(nil)
