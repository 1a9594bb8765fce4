package models

import "time"

// Contact is a User the owner added to the address book.
type Contact struct {
	User    User
	AddedAt time.Time
}

// BlockedUser marks an owner address the local user has blocked.
type BlockedUser struct {
	OwnerAddress string
	BlockedAt    time.Time
}
