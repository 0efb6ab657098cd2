package models

import (
	"time"
)

// Permission grants an action on a resource
type Permission struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Resource    string `json:"resource"`
	Action      string `json:"action"`
}

// UserRole is a named set of permissions. Lower levels are more privileged.
type UserRole struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Level       int          `json:"level"`
	Permissions []Permission `json:"permissions"`
}

// User represents a dashboard user
type User struct {
	ID          string       `json:"id"`
	Username    string       `json:"username"`
	Email       string       `json:"email"`
	FirstName   string       `json:"firstName"`
	LastName    string       `json:"lastName"`
	Role        UserRole     `json:"role"`
	Department  string       `json:"department"`
	IsActive    bool         `json:"isActive"`
	CreatedAt   time.Time    `json:"createdAt"`
	CreatedBy   string       `json:"createdBy"`
	LastLogin   *time.Time   `json:"lastLogin,omitempty"`
	Permissions []Permission `json:"permissions"`
}

// LoginCredentials represents the request payload for logging in
type LoginCredentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// CreateUserData represents the request payload for creating a user
type CreateUserData struct {
	Username   string `json:"username"`
	Email      string `json:"email"`
	FirstName  string `json:"firstName"`
	LastName   string `json:"lastName"`
	RoleID     string `json:"roleId"`
	Department string `json:"department"`
}

// UpdateUserRequest represents the request payload for updating a user
type UpdateUserRequest struct {
	Email      *string `json:"email,omitempty"`
	FirstName  *string `json:"firstName,omitempty"`
	LastName   *string `json:"lastName,omitempty"`
	RoleID     *string `json:"roleId,omitempty"`
	Department *string `json:"department,omitempty"`
	IsActive   *bool   `json:"isActive,omitempty"`
}
