package services

import (
	"context"
	"errors"

	"github.com/assetshare/backend/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Capability string

const (
	CapabilityRead   Capability = "read"
	CapabilityWrite  Capability = "write"
	CapabilityDelete Capability = "delete"
	CapabilityShare  Capability = "share"
)

type Capabilities struct {
	Read   bool `json:"read"`
	Write  bool `json:"write"`
	Delete bool `json:"delete"`
	Share  bool `json:"share"`
}

func (c Capabilities) Allows(capability Capability) bool {
	switch capability {
	case CapabilityRead:
		return c.Read
	case CapabilityWrite:
		return c.Write
	case CapabilityDelete:
		return c.Delete
	case CapabilityShare:
		return c.Share
	default:
		return false
	}
}

// CapabilitiesFor is the single access rule: the owner may do everything,
// a shared-with member may only read, anyone else gets nothing.
// asset.Shares must be loaded.
func CapabilitiesFor(identity uuid.UUID, asset *models.Asset) Capabilities {
	if asset == nil || identity == uuid.Nil {
		return Capabilities{}
	}
	if asset.OwnerID == identity {
		return Capabilities{Read: true, Write: true, Delete: true, Share: true}
	}
	if asset.IsSharedWith(identity) {
		return Capabilities{Read: true}
	}
	return Capabilities{}
}

var deniedMessages = map[Capability]string{
	CapabilityRead:   "Not authorized to access this asset",
	CapabilityWrite:  "Not authorized to update this asset",
	CapabilityDelete: "Not authorized to delete this asset",
	CapabilityShare:  "Not authorized to share this asset",
}

type AccessService struct {
	DB *gorm.DB
}

func NewAccessService(db *gorm.DB) *AccessService {
	return &AccessService{DB: db}
}

// Authorize loads the asset with its shares and owner, then checks the capability.
func (a *AccessService) Authorize(ctx context.Context, identity uuid.UUID, assetID uuid.UUID, required Capability) (*models.Asset, error) {
	var asset models.Asset
	err := a.DB.WithContext(ctx).
		Preload("Shares").
		Preload("Owner").
		First(&asset, "id = ?", assetID).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("Asset not found")
		}
		return nil, serverError("Failed to load asset", err)
	}

	if !CapabilitiesFor(identity, &asset).Allows(required) {
		message, ok := deniedMessages[required]
		if !ok {
			message = "Not authorized"
		}
		return nil, authError(message)
	}
	return &asset, nil
}
