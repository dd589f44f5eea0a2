package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/assetshare/backend/internal/config"
)

var (
	ErrObjectNotFound = errors.New("stored object not found")
	ErrInvalidName    = errors.New("invalid stored object name")
)

type Object struct {
	Name        string
	Size        int64
	ContentType string
	ModTime     time.Time
}

// Storage keeps uploaded files in one flat namespace keyed by stored name.
type Storage interface {
	Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error
	// Open returns ErrObjectNotFound when nothing is stored under name.
	Open(ctx context.Context, name string) (io.ReadCloser, *Object, error)
	// Delete succeeds when the object is already gone.
	Delete(ctx context.Context, name string) error
	List(ctx context.Context) ([]Object, error)
}

func validateName(name string) error {
	if name == "" || name == "." || name == ".." ||
		strings.ContainsAny(name, `/\`) || filepath.Base(name) != name {
		return fmt.Errorf("%w: %q", ErrInvalidName, name)
	}
	return nil
}

// New builds the backend selected by cfg.Storage.Driver.
func New(ctx context.Context, cfg *config.Config) (Storage, error) {
	switch cfg.Storage.Driver {
	case "minio":
		backend, err := NewMinIOStorage(cfg.MinIO)
		if err != nil {
			return nil, err
		}
		if err := backend.EnsureBucket(ctx); err != nil {
			return nil, err
		}
		return backend, nil
	case "local", "":
		return NewLocalStorage(cfg.Storage.UploadDir)
	default:
		return nil, fmt.Errorf("unsupported storage driver %q", cfg.Storage.Driver)
	}
}
