package models

import "time"

// UserRole represents the available roles for the RBAC system.
type UserRole string

const (
	RoleStudent UserRole = "STUDENT"
	RoleClub    UserRole = "CLUB"
	RoleAdmin   UserRole = "ADMIN"
)

// User represents an application user stored in the users table.
type User struct {
	ID              string    `db:"id" json:"id"`
	Email           string    `db:"email" json:"email"`
	PasswordHash    string    `db:"password_hash" json:"-"`
	FullName        string    `db:"full_name" json:"full_name"`
	Role            UserRole  `db:"role" json:"role"`
	IsEmailVerified bool      `db:"is_email_verified" json:"is_email_verified"`
	IsGoogleUser    bool      `db:"is_google_user" json:"is_google_user"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Verified reports whether the user passes the verified-email gate.
// Google-origin accounts are always considered verified.
func (u *User) Verified() bool {
	return u.IsEmailVerified || u.IsGoogleUser
}

// UserFilter captures filtering criteria for listing users.
type UserFilter struct {
	Role     *UserRole
	Verified *bool
	Search   string
	Page     int
	PageSize int
}

// Pagination contains pagination metadata returned in list responses.
type Pagination struct {
	Page       int `json:"page"`
	PageSize   int `json:"page_size"`
	TotalCount int `json:"total_count"`
}
