// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a registered account. RefreshToken holds the single active refresh
// token for the user (empty when none); it is overwritten on every login and
// cleared on logout, which invalidates all previously issued refresh tokens.
type User struct {
	ID           string
	UserName     string
	PasswordHash string
	RefreshToken string
	CreatedAt    time.Time
}
