package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type UserRole string

const (
	UserRoleEmployee UserRole = "employee"
	UserRoleAdmin    UserRole = "admin"
)

type TwoFactorMethod string

const (
	TwoFactorEmail         TwoFactorMethod = "email"
	TwoFactorSMS           TwoFactorMethod = "sms"
	TwoFactorAuthenticator TwoFactorMethod = "authenticator"
)

type User struct {
	ID           uuid.UUID `gorm:"type:uuid;primaryKey"`
	Username     string    `gorm:"type:varchar(150);uniqueIndex;not null"`
	Email        string    `gorm:"type:varchar(255);uniqueIndex;not null"`
	PasswordHash *string   `gorm:"type:text"`
	FirstName    string    `gorm:"type:varchar(100)"`
	LastName     string    `gorm:"type:varchar(100)"`
	Role         UserRole  `gorm:"type:varchar(20);default:'employee';not null"`
	Phone        string    `gorm:"type:varchar(20)"`

	TwoFactorEnabled bool            `gorm:"default:false;not null"`
	TwoFactorMethod  TwoFactorMethod `gorm:"type:varchar(20);default:''"`

	IsActive bool `gorm:"default:true"`

	CreatedAt time.Time
	UpdatedAt time.Time

	Sessions []Session
}

func (u *User) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

func (u *User) FullName() string {
	if u.FirstName == "" && u.LastName == "" {
		return u.Username
	}
	return u.FirstName + " " + u.LastName
}
