package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// LocalStore writes files below Dir. The returned URL is BaseURL joined
// with the object key; the router serves Dir under that prefix.
type LocalStore struct {
	Dir     string
	BaseURL string
}

func NewLocalStore(dir, baseURL string) *LocalStore {
	return &LocalStore{Dir: dir, BaseURL: strings.TrimRight(baseURL, "/")}
}

func (s *LocalStore) Save(ctx context.Context, folder, ext, _ string, r io.Reader, size int64) (string, error) {
	key := objectKey(folder, ext)
	dst := filepath.Join(s.Dir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
		return "", errors.Wrap(err, "create upload dir")
	}
	f, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return "", errors.Wrap(err, "create upload file")
	}
	n, err := io.Copy(f, io.LimitReader(r, size))
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err == nil && ctx.Err() != nil {
		err = ctx.Err()
	}
	if err == nil && n != size {
		err = errors.Errorf("short upload: got %d of %d bytes", n, size)
	}
	if err != nil {
		_ = os.Remove(dst)
		return "", errors.Wrap(err, "write upload")
	}
	return s.BaseURL + "/" + key, nil
}
