// Package model defines the domain model.
package model

import "time"

// Admin is a site administrator account with password login.
type Admin struct {
	ID           string
	Email        string
	Name         string
	PasswordHash string
	CreatedAt    time.Time
}

// Session is a logged-in admin session backed by the database.
type Session struct {
	ID        string
	AdminID   string
	ExpiresAt time.Time
	CreatedAt time.Time
}
