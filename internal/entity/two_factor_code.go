package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TwoFactorCode is one issued one-time login code. Codes are never updated
// after creation except for the single used=false -> used=true transition,
// and expired rows are kept as history rather than swept.
type TwoFactorCode struct {
	ID     uuid.UUID `gorm:"type:uuid;primaryKey"`
	UserID uuid.UUID `gorm:"type:uuid;not null;index"`
	User   User      `gorm:"constraint:OnDelete:CASCADE"`

	Code string `gorm:"type:varchar(6);not null"`
	Used bool   `gorm:"default:false;not null"`

	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"not null"`
}

func (c *TwoFactorCode) BeforeCreate(_ *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}

// IsValid reports whether the code may still be consumed at the given instant.
func (c *TwoFactorCode) IsValid(now time.Time) bool {
	return !c.Used && now.Before(c.ExpiresAt)
}
