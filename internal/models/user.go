package models

import "github.com/google/uuid"

type User struct {
	BaseModel
	Name                   string  `json:"name" gorm:"type:varchar(255);not null"`
	Email                  string  `json:"email" gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash           string  `json:"-" gorm:"type:text;not null"`
	SharingCode            string  `json:"sharingCode" gorm:"type:varchar(6);uniqueIndex;not null"`
	HasPaidForLargeUploads bool    `json:"hasPaidForLargeUploads" gorm:"not null;default:false"`
	Assets                 []Asset `json:"-" gorm:"foreignKey:OwnerID"`
}

// UserSummary is the public view of a user embedded in other resources.
type UserSummary struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

func (u *User) Summary() UserSummary {
	return UserSummary{ID: u.ID, Name: u.Name, Email: u.Email}
}
