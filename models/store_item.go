package models

import (
	"time"

	"gorm.io/gorm"
)

// StoreItemStatus indicates the publishing status of a power-up
type StoreItemStatus string

const (
	StoreItemStatusDraft     StoreItemStatus = "draft"
	StoreItemStatusPublished StoreItemStatus = "published"
	StoreItemStatusArchived  StoreItemStatus = "archived"
)

// StoreItem is a power-up in the Casa store, priced in Palomas. Members
// only ever browse published items; draft/archived are admin-side states.
type StoreItem struct {
	ID           string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Name         string          `gorm:"not null" json:"name"`
	Slug         string          `gorm:"uniqueIndex;not null" json:"slug"`
	Emoji        string          `gorm:"size:10" json:"emoji"`
	Description  string          `gorm:"type:text" json:"description"`
	PricePalomas int64           `gorm:"not null" json:"price_palomas"`
	Status       StoreItemStatus `gorm:"not null;default:'draft';index" json:"status"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
