// Package models defines server-side data models persisted in the database.
package models

import "time"

// User is a directory profile.
type User struct {
	// ID is the canonical (toshi) identifier.
	ID             string
	Username       string
	PaymentAddress string
	Name           string
	About          string
	Location       string
	// AvatarKey is the object-storage key of the avatar image, empty when unset.
	AvatarKey  string
	IsApp      bool
	Reputation float64
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
