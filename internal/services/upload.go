package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/samber/lo"
	"gorm.io/gorm"
)

const (
	storedNamePrefix = "file"
	uploadsURLPrefix = "/uploads/"
)

var allowedExtensions = []string{
	".jpeg", ".jpg", ".png", ".gif",
	".mp4", ".webm",
	".mp3", ".wav", ".m4a", ".ogg", ".aac", ".flac",
	".pdf", ".doc", ".docx", ".xls", ".xlsx", ".ppt", ".pptx", ".txt",
	".zip", ".rar",
}

var allowedMimeTypes = []string{
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"video/mp4",
	"video/webm",
	"audio/mpeg",
	"audio/wav",
	"audio/x-wav",
	"audio/m4a",
	"audio/ogg",
	"audio/aac",
	"audio/flac",
	"application/pdf",
	"application/msword",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/vnd.ms-excel",
	"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
	"application/vnd.ms-powerpoint",
	"application/vnd.openxmlformats-officedocument.presentationml.presentation",
	"text/plain",
	"application/zip",
	"application/x-rar-compressed",
}

var errStreamTooLarge = errors.New("upload stream exceeds declared size")

// IsAllowedFile requires both the extension and the mime type to be on the allowlist.
// The mime comparison ignores case and any parameters such as charset.
func IsAllowedFile(fileName, mimeType string) bool {
	ext := strings.ToLower(filepath.Ext(fileName))
	if !lo.Contains(allowedExtensions, ext) {
		return false
	}
	base, _, _ := strings.Cut(mimeType, ";")
	base = strings.ToLower(strings.TrimSpace(base))
	return lo.Contains(allowedMimeTypes, base)
}

type UploadInput struct {
	FileName string
	MimeType string
	Size     int64
	Reader   io.Reader
}

type UploadLimits struct {
	LargeFileThreshold int64
	MaxFileSize        int64
}

func LimitsFromConfig(cfg config.UploadConfig) UploadLimits {
	return UploadLimits{
		LargeFileThreshold: cfg.LargeFileThreshold,
		MaxFileSize:        cfg.MaxFileSize,
	}
}

type UploadService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Limits  UploadLimits

	now       func() time.Time
	lastStamp atomic.Int64
}

func NewUploadService(db *gorm.DB, store storage.Storage, limits UploadLimits) *UploadService {
	return &UploadService{
		DB:      db,
		Storage: store,
		Limits:  limits,
		now:     time.Now,
	}
}

// Upload runs the whole pipeline. Nothing is written to storage unless the
// file passes the allowlist and size checks, and the stored file is removed
// again if the asset record cannot be created.
func (s *UploadService) Upload(ctx context.Context, identity uuid.UUID, in *UploadInput) (*models.Asset, error) {
	if in == nil || in.Reader == nil || strings.TrimSpace(in.FileName) == "" {
		return nil, validationError("No file uploaded")
	}
	fileName := strings.TrimSpace(in.FileName)

	assetType := models.ClassifyAssetType(in.MimeType)

	if !IsAllowedFile(fileName, in.MimeType) {
		logger.WarnWithUser(identity.String(), "upload_rejected_file_type", map[string]interface{}{
			"file_name": fileName,
			"mime_type": in.MimeType,
		})
		return nil, validationError("Invalid file type")
	}

	if in.Size < 0 {
		return nil, validationError("Invalid file size")
	}
	if err := s.checkSize(ctx, identity, in.Size); err != nil {
		return nil, err
	}

	storedName := s.storedName(fileName)
	// The size tier was decided on the declared size, so the stream may not exceed it.
	reader := &cappedReader{r: in.Reader, remaining: in.Size}
	if err := s.Storage.Save(ctx, storedName, reader, in.Size, in.MimeType); err != nil {
		if errors.Is(err, errStreamTooLarge) {
			logger.WarnWithUser(identity.String(), "upload_size_mismatch", map[string]interface{}{
				"declared_size": in.Size,
			})
			return nil, validationError("File size does not match the uploaded content")
		}
		logger.ErrorWithUser(identity.String(), "upload_store_failed", err, map[string]interface{}{
			"stored_name": storedName,
		})
		return nil, serverError("Server error during file upload", err)
	}

	asset := &models.Asset{
		FileName:    fileName,
		FileSize:    reader.read,
		FileType:    in.MimeType,
		AssetType:   assetType,
		URL:         uploadsURLPrefix + storedName,
		StoragePath: storedName,
		OwnerID:     identity,
	}
	if err := s.DB.WithContext(ctx).Create(asset).Error; err != nil {
		if delErr := s.Storage.Delete(context.Background(), storedName); delErr != nil {
			logger.ErrorWithUser(identity.String(), "upload_rollback_failed", delErr, map[string]interface{}{
				"stored_name": storedName,
			})
		}
		return nil, serverError("Server error during file upload", err)
	}

	logger.InfoWithUser(identity.String(), "asset_uploaded", map[string]interface{}{
		"asset_id":   asset.ID.String(),
		"asset_type": string(asset.AssetType),
		"size":       asset.FileSize,
	})
	return asset, nil
}

func (s *UploadService) checkSize(ctx context.Context, identity uuid.UUID, size int64) error {
	if size > s.Limits.MaxFileSize {
		return tooLargeError(maxSizeMessage(s.Limits.MaxFileSize))
	}
	if size <= s.Limits.LargeFileThreshold {
		return nil
	}

	var user models.User
	err := s.DB.WithContext(ctx).Select("id", "has_paid_for_large_uploads").First(&user, "id = ?", identity).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("User not found")
		}
		return serverError("Failed to load user", err)
	}
	if !user.HasPaidForLargeUploads {
		return paymentRequiredError(fmt.Sprintf(
			"File size exceeds %s. Payment required to upload large files.",
			formatGiB(s.Limits.LargeFileThreshold),
		))
	}
	return nil
}

// storedName is file-<unixMillis><ext>. The stamp is forced to increase
// so two uploads in the same millisecond never share a name.
func (s *UploadService) storedName(fileName string) string {
	ms := s.now().UnixMilli()
	for {
		prev := s.lastStamp.Load()
		next := ms
		if next <= prev {
			next = prev + 1
		}
		if s.lastStamp.CompareAndSwap(prev, next) {
			return fmt.Sprintf("%s-%d%s", storedNamePrefix, next, filepath.Ext(fileName))
		}
	}
}

func maxSizeMessage(max int64) string {
	return fmt.Sprintf("File size exceeds the %s limit", formatGiB(max))
}

func formatGiB(n int64) string {
	if n%config.GiB == 0 {
		return fmt.Sprintf("%dGB", n/config.GiB)
	}
	return fmt.Sprintf("%d bytes", n)
}

// cappedReader fails with errStreamTooLarge once more than remaining bytes
// are read. read counts the bytes handed to the caller.
type cappedReader struct {
	r         io.Reader
	remaining int64
	read      int64
}

func (c *cappedReader) Read(p []byte) (int, error) {
	if c.remaining < 0 {
		return 0, errStreamTooLarge
	}
	if int64(len(p)) > c.remaining+1 {
		p = p[:c.remaining+1]
	}
	n, err := c.r.Read(p)
	c.remaining -= int64(n)
	c.read += int64(n)
	if c.remaining < 0 {
		return n, errStreamTooLarge
	}
	return n, err
}
