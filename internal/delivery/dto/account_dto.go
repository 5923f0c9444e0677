package dto

import (
	"time"
)

// Request DTOs

type SignupRequest struct {
	FullName        string `json:"fullName" validate:"required"`
	Email           string `json:"email" validate:"required,email"`
	Password        string `json:"password" validate:"required"`
	ConfirmPassword string `json:"confirmPassword"`
}

type SigninRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// Response DTOs

type AccountResponse struct {
	UserID    string `json:"userId"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	Token     string `json:"token,omitempty"`
	ExpiresIn int64  `json:"expiresIn,omitempty"`
}

// AuthResponse is the body of signup and signin.
type AuthResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	*AccountResponse
}

type LoginRecordResponse struct {
	ID         string    `json:"id"`
	Email      string    `json:"email"`
	FullName   string    `json:"fullName"`
	LoginTime  time.Time `json:"loginTime"`
	RemoteAddr string    `json:"remoteAddr,omitempty"`
	UserAgent  string    `json:"userAgent,omitempty"`
}

type LoginHistoryResponse struct {
	Success bool                  `json:"success"`
	Logins  []LoginRecordResponse `json:"logins"`
	Total   int                   `json:"total"`
}
