package storage

import (
	"context"
	"fmt"
	"io"
	"mime"
	"os"
	"path/filepath"

	"github.com/assetshare/backend/pkg/logger"
)

const tempSuffix = ".tmp"

type LocalStorage struct {
	dir string
}

func NewLocalStorage(dir string) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed creating upload directory %s: %w", dir, err)
	}
	return &LocalStorage{dir: dir}, nil
}

func (s *LocalStorage) Dir() string {
	return s.dir
}

// Save streams into a temp file, fsyncs, then renames into place.
// The temp file is removed on any failure, including a cancelled ctx.
func (s *LocalStorage) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	if err := validateName(name); err != nil {
		return err
	}

	fullPath := filepath.Join(s.dir, name)
	tmpPath := fullPath + tempSuffix

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed creating temp file: %w", err)
	}

	written, err := io.Copy(f, reader)
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		f.Close()
		os.Remove(tmpPath)
		logger.Error("local_storage_write_failed", err, map[string]interface{}{
			"object_name": name,
			"written":     written,
		})
		return fmt.Errorf("failed writing %s: %w", name, err)
	}

	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed syncing %s: %w", name, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed closing %s: %w", name, err)
	}
	if err := os.Rename(tmpPath, fullPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed renaming %s into place: %w", name, err)
	}

	logger.Info("local_storage_write_success", map[string]interface{}{
		"object_name":  name,
		"size":         written,
		"content_type": contentType,
	})
	return nil
}

func (s *LocalStorage) Open(_ context.Context, name string) (io.ReadCloser, *Object, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}

	f, err := os.Open(filepath.Join(s.dir, name))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil, ErrObjectNotFound
		}
		return nil, nil, fmt.Errorf("failed opening %s: %w", name, err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("failed reading info for %s: %w", name, err)
	}

	return f, &Object{
		Name:        name,
		Size:        info.Size(),
		ContentType: mime.TypeByExtension(filepath.Ext(name)),
		ModTime:     info.ModTime(),
	}, nil
}

func (s *LocalStorage) Delete(_ context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := os.Remove(filepath.Join(s.dir, name))
	if err != nil && !os.IsNotExist(err) {
		logger.Error("local_storage_delete_failed", err, map[string]interface{}{
			"object_name": name,
		})
		return fmt.Errorf("failed deleting %s: %w", name, err)
	}
	return nil
}

// List returns every regular file in the directory, leftover temp files included.
func (s *LocalStorage) List(_ context.Context) ([]Object, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed listing %s: %w", s.dir, err)
	}

	objects := make([]Object, 0, len(entries))
	for _, entry := range entries {
		if !entry.Type().IsRegular() {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed reading info for %s: %w", entry.Name(), err)
		}
		objects = append(objects, Object{
			Name:    entry.Name(),
			Size:    info.Size(),
			ModTime: info.ModTime(),
		})
	}
	return objects, nil
}
