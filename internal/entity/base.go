package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Model is implemented by every record type served through the data API.
type Model interface {
	TableName() string
	GetID() string
	GetOwner() string
	SetOwner(owner string)
	ResetIdentity(from Model)
}

// Base carries the identifier, ownership and timestamps shared by all records.
type Base struct {
	ID        string    `gorm:"primaryKey;type:varchar(36)" json:"id"`
	Owner     string    `gorm:"type:varchar(64);index" json:"owner,omitempty"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"createdAt"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updatedAt"`
}

// BeforeCreate assigns a UUID when the caller did not supply an identifier.
func (b *Base) BeforeCreate(tx *gorm.DB) error {
	if b.ID == "" {
		b.ID = uuid.NewString()
	}
	return nil
}

func (b *Base) GetID() string { return b.ID }

func (b *Base) GetOwner() string { return b.Owner }

func (b *Base) SetOwner(owner string) { b.Owner = owner }

// ResetIdentity copies the immutable columns back from the stored record so an update
// payload cannot rewrite them.
func (b *Base) ResetIdentity(from Model) {
	b.ID = from.GetID()
	b.Owner = from.GetOwner()
	if stored, ok := from.(interface{ timestamps() (time.Time, time.Time) }); ok {
		b.CreatedAt, b.UpdatedAt = stored.timestamps()
	}
}

func (b *Base) timestamps() (time.Time, time.Time) { return b.CreatedAt, b.UpdatedAt }
