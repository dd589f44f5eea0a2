package models

import (
	"time"

	"github.com/google/uuid"
)

// AssetShare is one member of an asset's shared-with set.
type AssetShare struct {
	AssetID    uuid.UUID `json:"assetID" gorm:"type:uuid;primaryKey"`
	UserID     uuid.UUID `json:"userID" gorm:"type:uuid;primaryKey;index"`
	SharedByID uuid.UUID `json:"sharedByID" gorm:"type:uuid;not null"`
	CreatedAt  time.Time `json:"createdAt" gorm:"not null"`

	Asset *Asset `json:"-" gorm:"foreignKey:AssetID;references:ID"`
	User  *User  `json:"-" gorm:"foreignKey:UserID;references:ID"`
}

func (AssetShare) TableName() string {
	return "asset_shares"
}
