package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UserRole enumerates the account types known to the platform.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleTutor   UserRole = "tutor"
	RoleStudent UserRole = "student"
)

// Valid reports whether the role is one of the known account types.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleTutor, RoleStudent:
		return true
	}
	return false
}

// Admin is a back-office account able to manage lessons and earnings.
type Admin struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}

// Tutor is a teaching account paid per hour of completed lessons.
type Tutor struct {
	ID           string          `db:"id" json:"id"`
	FullName     string          `db:"full_name" json:"full_name"`
	Email        string          `db:"email" json:"email"`
	PhoneNumber  string          `db:"phone_number" json:"phone_number"`
	HourlyRate   decimal.Decimal `db:"hourly_rate" json:"hourly_rate"`
	PasswordHash string          `db:"password_hash" json:"-"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Student is a learner account that books lessons.
type Student struct {
	ID           string    `db:"id" json:"id"`
	FullName     string    `db:"full_name" json:"full_name"`
	Email        string    `db:"email" json:"email"`
	PhoneNumber  string    `db:"phone_number" json:"phone_number"`
	PasswordHash string    `db:"password_hash" json:"-"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time `db:"updated_at" json:"updated_at"`
}
