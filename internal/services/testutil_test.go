package services

import (
	"bytes"
	"context"
	"io"
	"sync"
	"testing"
	"time"

	"github.com/assetshare/backend/internal/config"
	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/assetshare/backend/pkg/utils"
	"github.com/glebarez/sqlite"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

var testSetupOnce sync.Once

type testEnv struct {
	db      *gorm.DB
	store   *storage.LocalStorage
	auth    *AuthService
	access  *AccessService
	assets  *AssetService
	uploads *UploadService
	payment *PaymentService
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	testSetupOnce.Do(func() {
		logger.SetOutput(io.Discard)
		utils.ConfigureJWT("test-secret", 24)
	})

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(&models.User{}, &models.Asset{}, &models.AssetShare{}))

	store, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)

	auth := NewAuthService(db)
	access := NewAccessService(db)

	return &testEnv{
		db:     db,
		store:  store,
		auth:   auth,
		access: access,
		assets: NewAssetService(db, store, access, auth),
		uploads: NewUploadService(db, store, UploadLimits{
			LargeFileThreshold: 10 * config.GiB,
			MaxFileSize:        15 * config.GiB,
		}),
		payment: NewPaymentService(db, config.PaymentConfig{
			SessionTTL:  time.Minute,
			MaxSessions: 100,
			GatewayURL:  "https://pay.example.com/",
		}),
	}
}

func (e *testEnv) register(t *testing.T, name, email string) *models.User {
	t.Helper()
	res, err := e.auth.Register(context.Background(), RegisterInput{
		Name:     name,
		Email:    email,
		Password: "password123",
	})
	require.NoError(t, err)
	return res.User
}

func (e *testEnv) upload(t *testing.T, owner *models.User, fileName, mimeType string, content []byte) *models.Asset {
	t.Helper()
	asset, err := e.uploads.Upload(context.Background(), owner.ID, &UploadInput{
		FileName: fileName,
		MimeType: mimeType,
		Size:     int64(len(content)),
		Reader:   bytes.NewReader(content),
	})
	require.NoError(t, err)
	return asset
}

// seedAsset inserts an asset record directly, bypassing storage.
func (e *testEnv) seedAsset(t *testing.T, owner *models.User, fileName string, assetType models.AssetType, createdAt time.Time) *models.Asset {
	t.Helper()
	stored := "file-" + uuid.NewString() + ".bin"
	asset := &models.Asset{
		FileName:    fileName,
		FileSize:    1,
		FileType:    "application/octet-stream",
		AssetType:   assetType,
		URL:         "/uploads/" + stored,
		StoragePath: stored,
		OwnerID:     owner.ID,
	}
	asset.CreatedAt = createdAt
	require.NoError(t, e.db.Create(asset).Error)
	return asset
}

func requireKind(t *testing.T, err error, kind ErrorKind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, KindOf(err), "unexpected error: %v", err)
}
