package models

import (
	"time"

	"gorm.io/gorm"
)

// Profile is the ledger-side account record for a Casa member.
// Identity (email, avatar, session) is owned by the external profile
// service — this row only carries what the ledger needs.
type Profile struct {
	ID       string `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	Username string `gorm:"uniqueIndex;not null" json:"username"`

	// Balances (aggregate, denormalized; reconciled by the drift worker)
	DoveBalance int64 `json:"dove_balance" gorm:"not null;default:0"`
	LoveBalance int64 `json:"love_balance" gorm:"not null;default:0"`

	ProgressionLevel      int   `json:"progression_level" gorm:"not null;default:1"`
	TotalPalomasCollected int64 `json:"total_palomas_collected" gorm:"not null;default:0"`

	// Advisory only — set by the expiration sweep, never read for logic
	LastExpirationCheck *time.Time `json:"last_expiration_check,omitempty"`

	Timestamps
}

// ProfileAlias maps a short alias (e.g. "casa") to a profile. Used to
// resolve the house account without scattering username literals.
type ProfileAlias struct {
	Alias     string    `gorm:"primaryKey" json:"alias"`
	ProfileID string    `gorm:"type:uuid;not null;index" json:"profile_id"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
}

func (ProfileAlias) TableName() string {
	return "profile_aliases"
}

// Timestamps adds GORM auto-times
type Timestamps struct {
	CreatedAt time.Time      `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time      `json:"updated_at" gorm:"autoUpdateTime"`
	DeletedAt gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`
}
