// Package domain contains the user and company directory models.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Role distinguishes company owners from their billed customers.
type Role string

const (
	RoleAdmin    Role = "admin"
	RoleCustomer Role = "customer"
)

// User is an authenticated identity. Customers belong to exactly one company;
// admins own theirs.
type User struct {
	ID           snowflake.ID `gorm:"primaryKey" json:"id"`
	CompanyID    snowflake.ID `gorm:"not null;index" json:"companyId"`
	Role         Role         `gorm:"type:text;not null" json:"role"`
	Name         string       `gorm:"type:text;not null" json:"name"`
	Email        string       `gorm:"type:text;not null;uniqueIndex" json:"email"`
	Phone        string       `gorm:"type:text" json:"phone,omitempty"`
	PasswordHash string       `gorm:"type:text;not null" json:"-"`
	CreatedAt    time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt    time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// Company is the tenant that issues invoices.
type Company struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null" json:"name"`
	Email     string       `gorm:"type:text;not null" json:"email"`
	Phone     string       `gorm:"type:text" json:"phone,omitempty"`
	Address   string       `gorm:"type:text" json:"address,omitempty"`
	City      string       `gorm:"type:text" json:"city,omitempty"`
	State     string       `gorm:"type:text" json:"state,omitempty"`
	TaxID     string       `gorm:"type:text" json:"taxId,omitempty"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
	UpdatedAt time.Time    `gorm:"not null" json:"updated_at"`
}

// TableName sets the database table name.
func (Company) TableName() string { return "companies" }

// Session is a bearer token issued at login.
type Session struct {
	Token     string       `gorm:"primaryKey;type:text" json:"-"`
	UserID    snowflake.ID `gorm:"not null;index" json:"user_id"`
	ExpiresAt time.Time    `gorm:"not null" json:"expires_at"`
	CreatedAt time.Time    `gorm:"not null" json:"created_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Actor is the resolved identity attached to each authenticated request.
type Actor struct {
	UserID    snowflake.ID
	CompanyID snowflake.ID
	Role      Role
}

// IsAdmin reports whether the actor owns a company.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }
