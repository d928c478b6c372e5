package models

import "time"

// User is a full row of the users table, including the password hash.
// It never leaves the server; handlers expose PublicUser instead.
type User struct {
	ID           int32
	Name         string
	Email        string
	PasswordHash string
	RoleID       int32
	Avatar       *string
	CreatedAt    time.Time
	LastSeen     time.Time
	DeletedAt    *time.Time
	IsActive     bool
}

// Public strips the credential columns.
func (u *User) Public() *PublicUser {
	return &PublicUser{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Avatar:    u.Avatar,
		CreatedAt: u.CreatedAt,
		LastSeen:  u.LastSeen,
		DeletedAt: u.DeletedAt,
	}
}

// PublicUser is the externally visible projection of a user.
type PublicUser struct {
	ID        int32      `json:"id"`
	Name      string     `json:"name"`
	Email     string     `json:"email"`
	Avatar    *string    `json:"avatar"`
	CreatedAt time.Time  `json:"created_at"`
	LastSeen  time.Time  `json:"last_seen"`
	DeletedAt *time.Time `json:"deleted_at"`
}

// NewUser carries the fields accepted on registration. PasswordHash is
// already derived; plaintext never reaches the repository.
type NewUser struct {
	Name         string
	Email        string
	PasswordHash string
	Avatar       string
}

// UserUpdate carries the mutable profile fields.
type UserUpdate struct {
	Name   string
	Email  string
	Avatar string
}
