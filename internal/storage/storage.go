// Package storage keeps uploaded files (pharmacist CVs) on local disk or in
// an S3 compatible bucket and returns the URL they can be fetched from.
package storage

import (
	"context"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/iliyamo/pharmacy-marketplace/internal/config"
)

// FileStore saves a file under a generated name inside folder and returns
// its public URL.
type FileStore interface {
	Save(ctx context.Context, folder, ext, contentType string, r io.Reader, size int64) (string, error)
}

// New picks the implementation named by cfg.Driver.
func New(cfg config.StorageConfig) (FileStore, error) {
	switch strings.ToLower(cfg.Driver) {
	case "", "local":
		return NewLocalStore(cfg.LocalDir, cfg.PublicBaseURL), nil
	case "s3":
		return NewS3Store(cfg)
	default:
		return nil, errors.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// objectKey builds "<folder>/<uuid><ext>". ext must include the dot.
func objectKey(folder, ext string) string {
	name := uuid.NewString() + strings.ToLower(ext)
	folder = strings.Trim(path.Clean("/"+folder), "/")
	if folder == "" {
		return name
	}
	return folder + "/" + name
}
