package domain

import (
	"context"
	"errors"
)

type RegisterRequest struct {
	Name        string `json:"name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	Phone       string `json:"phonenumber"`
	CompanyName string `json:"companyName"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
	User  User   `json:"user"`
}

type CreateCustomerRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Phone    string `json:"phonenumber"`
}

type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (LoginResponse, error)
	Logout(ctx context.Context, token string) error
	// Authenticate resolves a bearer token into the acting identity.
	Authenticate(ctx context.Context, token string) (Actor, error)

	GetUser(ctx context.Context, id string) (User, error)
	GetCompany(ctx context.Context, id string) (Company, error)
	ChangePassword(ctx context.Context, actor Actor, req ChangePasswordRequest) error

	// CreateCustomer adds a customer to the admin's company.
	CreateCustomer(ctx context.Context, actor Actor, req CreateCustomerRequest) (User, error)
	GetCustomer(ctx context.Context, actor Actor, id string) (User, error)
	ListCustomers(ctx context.Context, actor Actor) ([]User, error)
}

var (
	ErrNotFound           = errors.New("not_found")
	ErrForbidden          = errors.New("forbidden")
	ErrInvalidCredentials = errors.New("invalid_credentials")
	ErrSessionExpired     = errors.New("session_expired")
	ErrEmailTaken         = errors.New("email_taken")
	ErrInvalidRequest     = errors.New("invalid_request")
	ErrWeakPassword       = errors.New("weak_password")
)
