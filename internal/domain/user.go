package domain

import "time"

type Role string

const (
	RoleResident Role = "resident"
	RoleAdmin    Role = "admin"
	RoleVendor   Role = "vendor"
)

type User struct {
	ID           int64     `json:"id"`
	Email        string    `json:"email" gorm:"uniqueIndex" validate:"required,email"`
	PasswordHash string    `json:"-"`
	Name         string    `json:"name" validate:"required"`
	Role         Role      `json:"role"`
	Unit         string    `json:"unit,omitempty"`
	Phone        string    `json:"phone,omitempty"`
	IsApproved   bool      `json:"isApproved" gorm:"default:false"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}
