package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"time"

	"github.com/assetshare/backend/internal/models"
	"github.com/assetshare/backend/internal/storage"
	"github.com/assetshare/backend/pkg/logger"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const filterAll = "all"

type ListFilter struct {
	Type  string
	Query string
}

type SharingCodeResolver interface {
	FindBySharingCode(ctx context.Context, code string) (*models.User, error)
}

type AssetService struct {
	DB      *gorm.DB
	Storage storage.Storage
	Access  *AccessService
	Users   SharingCodeResolver
}

func NewAssetService(db *gorm.DB, store storage.Storage, access *AccessService, users SharingCodeResolver) *AssetService {
	return &AssetService{
		DB:      db,
		Storage: store,
		Access:  access,
		Users:   users,
	}
}

// List returns every asset the identity owns or has been shared, newest first.
// Both filters apply to owned and shared assets alike.
func (s *AssetService) List(ctx context.Context, identity uuid.UUID, filter ListFilter) ([]models.Asset, error) {
	assetType := strings.ToLower(strings.TrimSpace(filter.Type))
	if assetType != "" && assetType != filterAll && !models.AssetType(assetType).Valid() {
		return nil, validationError("Invalid asset type")
	}

	db := s.DB.WithContext(ctx)
	sharedIDs := db.Model(&models.AssetShare{}).Select("asset_id").Where("user_id = ?", identity)

	query := db.Model(&models.Asset{}).
		Where("(owner_id = ? OR id IN (?))", identity, sharedIDs)

	if assetType != "" && assetType != filterAll {
		query = query.Where("asset_type = ?", assetType)
	}
	if term := strings.TrimSpace(filter.Query); term != "" {
		query = query.Where("LOWER(file_name) LIKE ? ESCAPE '\\'", "%"+escapeLike(strings.ToLower(term))+"%")
	}

	assets := make([]models.Asset, 0)
	err := query.
		Preload("Shares").
		Preload("Owner").
		Order("created_at DESC").
		Find(&assets).Error
	if err != nil {
		return nil, serverError("Failed to list assets", err)
	}
	return assets, nil
}

func (s *AssetService) Get(ctx context.Context, identity uuid.UUID, assetID uuid.UUID) (*models.Asset, error) {
	return s.Access.Authorize(ctx, identity, assetID, CapabilityRead)
}

// Rename changes only the display name; every other field is fixed at upload.
func (s *AssetService) Rename(ctx context.Context, identity uuid.UUID, assetID uuid.UUID, fileName string) (*models.Asset, error) {
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return nil, validationError("File name is required")
	}
	if len(fileName) > 255 {
		return nil, validationError("File name must be at most 255 characters")
	}

	asset, err := s.Access.Authorize(ctx, identity, assetID, CapabilityWrite)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	err = s.DB.WithContext(ctx).
		Model(&models.Asset{}).
		Where("id = ?", asset.ID).
		Updates(map[string]interface{}{"file_name": fileName, "updated_at": now}).Error
	if err != nil {
		return nil, serverError("Failed to update asset", err)
	}
	asset.FileName = fileName
	asset.UpdatedAt = now

	logger.InfoWithUser(identity.String(), "asset_renamed", map[string]interface{}{
		"asset_id": asset.ID.String(),
	})
	return asset, nil
}

// Delete removes the stored file first, then the record and its share rows.
// A file that is already gone does not block removing the record.
func (s *AssetService) Delete(ctx context.Context, identity uuid.UUID, assetID uuid.UUID) error {
	asset, err := s.Access.Authorize(ctx, identity, assetID, CapabilityDelete)
	if err != nil {
		return err
	}

	if err := s.Storage.Delete(ctx, asset.StoragePath); err != nil {
		logger.ErrorWithUser(identity.String(), "asset_file_delete_failed", err, map[string]interface{}{
			"asset_id":    asset.ID.String(),
			"stored_name": asset.StoragePath,
		})
		return serverError("Failed to delete stored file", err)
	}

	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("asset_id = ?", asset.ID).Delete(&models.AssetShare{}).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Asset{}, "id = ?", asset.ID).Error
	})
	if err != nil {
		logger.ErrorWithUser(identity.String(), "asset_record_delete_failed", err, map[string]interface{}{
			"asset_id": asset.ID.String(),
		})
		return serverError("Failed to delete asset", err)
	}

	logger.InfoWithUser(identity.String(), "asset_deleted", map[string]interface{}{
		"asset_id": asset.ID.String(),
	})
	return nil
}

func (s *AssetService) Share(ctx context.Context, identity uuid.UUID, assetID uuid.UUID, sharingCode string) (*models.User, error) {
	sharingCode = strings.TrimSpace(sharingCode)
	if sharingCode == "" {
		return nil, validationError("Please provide a sharing code")
	}

	asset, err := s.Access.Authorize(ctx, identity, assetID, CapabilityShare)
	if err != nil {
		return nil, err
	}

	target, err := s.Users.FindBySharingCode(ctx, sharingCode)
	if err != nil {
		if KindOf(err) == KindNotFound {
			return nil, notFoundError("User with this sharing code not found")
		}
		return nil, err
	}
	if target.ID == asset.OwnerID {
		return nil, validationError("Cannot share an asset with its owner")
	}
	if asset.IsSharedWith(target.ID) {
		return nil, conflictError("Asset already shared with this user")
	}

	share := &models.AssetShare{
		AssetID:    asset.ID,
		UserID:     target.ID,
		SharedByID: identity,
	}
	if err := s.DB.WithContext(ctx).Create(share).Error; err != nil {
		// The composite key rejects a concurrent duplicate.
		var count int64
		if countErr := s.DB.WithContext(ctx).Model(&models.AssetShare{}).
			Where("asset_id = ? AND user_id = ?", asset.ID, target.ID).
			Count(&count).Error; countErr == nil && count > 0 {
			return nil, conflictError("Asset already shared with this user")
		}
		return nil, serverError("Failed to share asset", err)
	}

	logger.InfoWithUser(identity.String(), "asset_shared", map[string]interface{}{
		"asset_id":    asset.ID.String(),
		"target_user": target.ID.String(),
	})
	return target, nil
}

// Unshare is a no-op when the user is not in the shared-with set. A user id
// that does not parse can never be in the set, so it is a no-op too.
func (s *AssetService) Unshare(ctx context.Context, identity uuid.UUID, assetID uuid.UUID, userID string) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return validationError("Please provide a user ID")
	}

	asset, err := s.Access.Authorize(ctx, identity, assetID, CapabilityShare)
	if err != nil {
		return err
	}

	targetID, err := uuid.Parse(userID)
	if err != nil {
		logger.InfoWithUser(identity.String(), "asset_unshared", map[string]interface{}{
			"asset_id": asset.ID.String(),
			"removed":  0,
		})
		return nil
	}

	result := s.DB.WithContext(ctx).
		Where("asset_id = ? AND user_id = ?", asset.ID, targetID).
		Delete(&models.AssetShare{})
	if result.Error != nil {
		return serverError("Failed to unshare asset", result.Error)
	}

	logger.InfoWithUser(identity.String(), "asset_unshared", map[string]interface{}{
		"asset_id":    asset.ID.String(),
		"target_user": targetID.String(),
		"removed":     result.RowsAffected,
	})
	return nil
}

// Open authorizes a read and returns the stored file. The caller closes the reader.
func (s *AssetService) Open(ctx context.Context, identity uuid.UUID, assetID uuid.UUID) (*models.Asset, io.ReadCloser, error) {
	asset, err := s.Access.Authorize(ctx, identity, assetID, CapabilityRead)
	if err != nil {
		return nil, nil, err
	}

	rc, _, err := s.Storage.Open(ctx, asset.StoragePath)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			logger.WarnWithUser(identity.String(), "asset_file_missing", map[string]interface{}{
				"asset_id":    asset.ID.String(),
				"stored_name": asset.StoragePath,
			})
			return nil, nil, notFoundError("Stored file not found")
		}
		return nil, nil, serverError("Failed to open stored file", err)
	}
	return asset, rc, nil
}

func escapeLike(term string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(term)
}
