package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

type MinIOStorage struct {
	client *minio.Client
	bucket string
}

// NewMinIOStorage falls back to IAM credentials when no access key is configured,
// so the same backend serves MinIO and AWS S3.
func NewMinIOStorage(cfg config.MinIOConfig) (*MinIOStorage, error) {
	var creds *credentials.Credentials
	if cfg.AccessKey == "" {
		creds = credentials.NewIAM("")
	} else {
		creds = credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, "")
	}

	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  creds,
		Secure: cfg.UseSSL,
		Region: cfg.Region,
	})
	if err != nil {
		return nil, err
	}

	return &MinIOStorage{
		client: client,
		bucket: cfg.Bucket,
	}, nil
}

func (m *MinIOStorage) Save(ctx context.Context, name string, reader io.Reader, size int64, contentType string) error {
	if err := validateName(name); err != nil {
		return err
	}

	_, err := m.client.PutObject(ctx, m.bucket, name, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		logger.Error("minio_upload_failed", err, map[string]interface{}{
			"object_name":  name,
			"size":         size,
			"content_type": contentType,
			"bucket":       m.bucket,
		})
		// A failed multipart upload may leave a partial object behind.
		_ = m.client.RemoveIncompleteUpload(context.Background(), m.bucket, name)
		return fmt.Errorf("failed uploading %s: %w", name, err)
	}

	logger.Info("minio_upload_success", map[string]interface{}{
		"object_name":  name,
		"size":         size,
		"content_type": contentType,
		"bucket":       m.bucket,
	})
	return nil
}

func (m *MinIOStorage) Open(ctx context.Context, name string) (io.ReadCloser, *Object, error) {
	if err := validateName(name); err != nil {
		return nil, nil, err
	}

	obj, err := m.client.GetObject(ctx, m.bucket, name, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, m.translate("minio_download_failed", name, err)
	}
	info, err := obj.Stat()
	if err != nil {
		obj.Close()
		return nil, nil, m.translate("minio_download_stat_failed", name, err)
	}

	return obj, &Object{
		Name:        name,
		Size:        info.Size,
		ContentType: info.ContentType,
		ModTime:     info.LastModified,
	}, nil
}

func (m *MinIOStorage) Delete(ctx context.Context, name string) error {
	if err := validateName(name); err != nil {
		return err
	}

	err := m.client.RemoveObject(ctx, m.bucket, name, minio.RemoveObjectOptions{})
	if err != nil && !isNoSuchKey(err) {
		logger.Error("minio_delete_failed", err, map[string]interface{}{
			"object_name": name,
			"bucket":      m.bucket,
		})
		return fmt.Errorf("failed deleting %s: %w", name, err)
	}

	logger.Info("minio_delete_success", map[string]interface{}{
		"object_name": name,
		"bucket":      m.bucket,
	})
	return nil
}

// List cancels the listing once it returns, including on an early error.
func (m *MinIOStorage) List(ctx context.Context) ([]Object, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var objects []Object
	for info := range m.client.ListObjects(ctx, m.bucket, minio.ListObjectsOptions{}) {
		if info.Err != nil {
			return nil, fmt.Errorf("failed listing bucket %s: %w", m.bucket, info.Err)
		}
		objects = append(objects, Object{
			Name:        info.Key,
			Size:        info.Size,
			ContentType: info.ContentType,
			ModTime:     info.LastModified,
		})
	}
	return objects, nil
}

func (m *MinIOStorage) EnsureBucket(ctx context.Context) error {
	exists, err := m.client.BucketExists(ctx, m.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	if err := m.client.MakeBucket(ctx, m.bucket, minio.MakeBucketOptions{}); err != nil {
		return fmt.Errorf("failed creating bucket %s: %w", m.bucket, err)
	}
	return nil
}

func (m *MinIOStorage) translate(action, name string, err error) error {
	if isNoSuchKey(err) {
		return ErrObjectNotFound
	}
	logger.Error(action, err, map[string]interface{}{
		"object_name": name,
		"bucket":      m.bucket,
	})
	return fmt.Errorf("failed reading %s: %w", name, err)
}

func isNoSuchKey(err error) bool {
	return minio.ToErrorResponse(err).Code == "NoSuchKey"
}
