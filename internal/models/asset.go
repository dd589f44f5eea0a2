package models

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/samber/lo"
)

type AssetType string

const (
	AssetTypeImage    AssetType = "image"
	AssetTypeVideo    AssetType = "video"
	AssetTypeAudio    AssetType = "audio"
	AssetTypeDocument AssetType = "document"
	AssetTypeOther    AssetType = "other"
)

var AssetTypes = []AssetType{
	AssetTypeImage,
	AssetTypeVideo,
	AssetTypeAudio,
	AssetTypeDocument,
	AssetTypeOther,
}

func (t AssetType) Valid() bool {
	return lo.Contains(AssetTypes, t)
}

// ClassifyAssetType derives the asset type from a mime type. Matching is case-sensitive.
func ClassifyAssetType(mimeType string) AssetType {
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return AssetTypeImage
	case strings.HasPrefix(mimeType, "video/"):
		return AssetTypeVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return AssetTypeAudio
	case strings.Contains(mimeType, "pdf"),
		strings.Contains(mimeType, "document"),
		strings.Contains(mimeType, "text/"),
		strings.Contains(mimeType, "application/vnd"):
		return AssetTypeDocument
	default:
		return AssetTypeOther
	}
}

type Asset struct {
	BaseModel
	FileName    string    `json:"fileName" gorm:"type:varchar(255);not null"`
	FileSize    int64     `json:"fileSize" gorm:"not null;default:0"`
	FileType    string    `json:"fileType" gorm:"type:varchar(255);not null"`
	AssetType   AssetType `json:"assetType" gorm:"type:varchar(20);not null;index"`
	URL         string    `json:"url" gorm:"type:text;not null"`
	StoragePath string    `json:"-" gorm:"type:varchar(255);uniqueIndex;not null"`
	OwnerID     uuid.UUID `json:"-" gorm:"type:uuid;not null;index"`

	Owner  *User        `json:"-" gorm:"foreignKey:OwnerID;references:ID"`
	Shares []AssetShare `json:"-" gorm:"foreignKey:AssetID"`
}

func (a *Asset) UploadedBy() OwnerRef {
	if a.Owner != nil {
		return Populated(a.Owner)
	}
	return Reference(a.OwnerID)
}

func (a *Asset) SharedWith() []uuid.UUID {
	return lo.Uniq(lo.Map(a.Shares, func(s AssetShare, _ int) uuid.UUID {
		return s.UserID
	}))
}

func (a *Asset) IsSharedWith(userID uuid.UUID) bool {
	return lo.ContainsBy(a.Shares, func(s AssetShare) bool {
		return s.UserID == userID
	})
}

type assetJSON struct {
	ID         uuid.UUID   `json:"id"`
	FileName   string      `json:"fileName"`
	FileSize   int64       `json:"fileSize"`
	FileType   string      `json:"fileType"`
	AssetType  AssetType   `json:"assetType"`
	URL        string      `json:"url"`
	UploadedBy OwnerRef    `json:"uploadedBy"`
	SharedWith []uuid.UUID `json:"sharedWith"`
	CreatedAt  time.Time   `json:"createdAt"`
	UpdatedAt  time.Time   `json:"updatedAt"`
}

func (a Asset) MarshalJSON() ([]byte, error) {
	return json.Marshal(assetJSON{
		ID:         a.ID,
		FileName:   a.FileName,
		FileSize:   a.FileSize,
		FileType:   a.FileType,
		AssetType:  a.AssetType,
		URL:        a.URL,
		UploadedBy: a.UploadedBy(),
		SharedWith: a.SharedWith(),
		CreatedAt:  a.CreatedAt,
		UpdatedAt:  a.UpdatedAt,
	})
}
