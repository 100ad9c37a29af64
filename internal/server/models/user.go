// Package models contains the persistence-facing data structures shared by
// repositories and services.
package models

import "time"

// User is an account identity record. PasswordHash is a bcrypt hash and is
// never serialized in API responses.
type User struct {
	ID           string    `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"-"`
}
