package entity

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Department string

const (
	DepartmentHR         Department = "HR"
	DepartmentIT         Department = "IT"
	DepartmentFinance    Department = "Finance"
	DepartmentMarketing  Department = "Marketing"
	DepartmentSales      Department = "Sales"
	DepartmentOperations Department = "Operations"
)

type EmployeeStatus string

const (
	StatusActive   EmployeeStatus = "Active"
	StatusInactive EmployeeStatus = "Inactive"
	StatusOnLeave  EmployeeStatus = "On Leave"
)

type Employee struct {
	ID     uuid.UUID  `gorm:"type:uuid;primaryKey"`
	UserID *uuid.UUID `gorm:"type:uuid;uniqueIndex"`
	User   *User      `gorm:"constraint:OnDelete:SET NULL"`

	Department Department     `gorm:"type:varchar(50);not null"`
	Position   string         `gorm:"type:varchar(100);not null"`
	JoinDate   time.Time      `gorm:"type:date;not null"`
	Address    string         `gorm:"type:text"`
	Phone      *string        `gorm:"type:varchar(15)"`
	Status     EmployeeStatus `gorm:"type:varchar(20);default:'Active';not null"`

	ProfilePicture string `gorm:"type:text"`

	CreatedAt time.Time
	UpdatedAt time.Time
}

func (e *Employee) BeforeCreate(_ *gorm.DB) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	return nil
}

func (e *Employee) FullName() string {
	if e.User != nil {
		return e.User.FullName()
	}
	return "Employee #" + e.ID.String()[:8]
}

func (e *Employee) Email() string {
	if e.User != nil {
		return e.User.Email
	}
	return ""
}
