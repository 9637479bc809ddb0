package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Identity is a sign-in account of the local identity service. It is never served through
// the data API.
type Identity struct {
	ID           string                      `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Email        string                      `gorm:"uniqueIndex;not null" json:"email"`
	PasswordHash string                      `gorm:"not null" json:"-"`
	Groups       datatypes.JSONSlice[string] `json:"groups,omitempty"`
	CreatedAt    time.Time                   `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt    time.Time                   `gorm:"autoUpdateTime" json:"updatedAt"`
}

func (Identity) TableName() string {
	return "identities"
}

func (i *Identity) BeforeCreate(tx *gorm.DB) error {
	if i.ID == "" {
		i.ID = uuid.NewString()
	}
	return nil
}
