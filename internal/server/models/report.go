package models

import "time"

// Report is a complaint filed against a user. Timestamp is the server time
// the reporter obtained before submitting.
type Report struct {
	ID          string
	UserID      string
	UserAddress string
	Details     string
	Timestamp   time.Time
	CreatedAt   time.Time
}
