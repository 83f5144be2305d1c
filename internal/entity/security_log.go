package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type SecurityAction string

const (
	LoginSuccess    SecurityAction = "login_success"
	LoginFailed     SecurityAction = "login_failed"
	TwoFactorFailed SecurityAction = "two_factor_failed"
	TwoFactorSent   SecurityAction = "two_factor_sent"
	Logout          SecurityAction = "logout"
	Reset           SecurityAction = "password_reset"
	SessionRevoked  SecurityAction = "session_revoked"
)

type SecurityLog struct {
	ID uuid.UUID `gorm:"type:uuid;primaryKey"`

	UserID *uuid.UUID `gorm:"type:uuid;index"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	IPAddress *string        `gorm:"type:varchar(45)"`
	Action    SecurityAction `gorm:"type:varchar(30);not null"`

	Metadata datatypes.JSON

	CreatedAt time.Time
}

func (l *SecurityLog) BeforeCreate(_ *gorm.DB) error {
	if l.ID == uuid.Nil {
		l.ID = uuid.New()
	}
	return nil
}
