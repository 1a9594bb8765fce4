package models

import "time"

// Report is a complaint against a user. Timestamp is set from the server
// clock right before submission.
type Report struct {
	ID          string
	UserAddress string
	Details     string
	Timestamp   time.Time
}

// ServerTime is the directory clock plus the token that vouches for it.
type ServerTime struct {
	Timestamp time.Time
	Token     string
}
