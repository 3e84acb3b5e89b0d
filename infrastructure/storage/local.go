package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"savoria/domain/directory"

	"github.com/spf13/afero"
)

// LocalStore writes slips below a directory of an afero filesystem.
type LocalStore struct {
	fs      afero.Fs
	baseURL string
	limits  Limits
}

// NewLocalStore roots the store at dir on the OS filesystem.
func NewLocalStore(dir, baseURL string, limits Limits) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("storage: create %s: %w", dir, err)
	}
	return NewLocalStoreOnFs(afero.NewBasePathFs(afero.NewOsFs(), dir), baseURL, limits), nil
}

// NewLocalStoreOnFs is used with afero.NewMemMapFs in tests.
func NewLocalStoreOnFs(fs afero.Fs, baseURL string, limits Limits) *LocalStore {
	return &LocalStore{fs: fs, baseURL: baseURL, limits: limits}
}

func (s *LocalStore) Store(ctx context.Context, key string, file directory.Upload) (string, error) {
	if err := s.limits.check(key, file); err != nil {
		return "", err
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	name := objectName(key, file.Filename)
	if err := s.fs.MkdirAll(filepath.Dir(name), 0o755); err != nil {
		return "", fmt.Errorf("storage: mkdir: %w", err)
	}

	f, err := s.fs.OpenFile(name, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", fmt.Errorf("storage: create %s: %w", name, err)
	}

	written, err := io.Copy(f, limitReader(file.Body, s.limits.MaxBytes))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && s.limits.MaxBytes > 0 && written > s.limits.MaxBytes {
		err = ErrFileTooLarge
	}
	if err != nil {
		_ = s.fs.Remove(name)
		return "", fmt.Errorf("storage: write %s: %w", name, err)
	}
	return joinURL(s.baseURL, name), nil
}

// limitReader reads one byte past max so oversize bodies are detected even
// when the declared size lied.
func limitReader(r io.Reader, max int64) io.Reader {
	if max <= 0 {
		return r
	}
	return io.LimitReader(r, max+1)
}

var _ directory.FileStore = (*LocalStore)(nil)
