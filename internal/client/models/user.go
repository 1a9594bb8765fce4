package models

import "time"

// DefaultRefreshInterval is how long a cached profile is trusted while the
// device is online.
const DefaultRefreshInterval = 5 * time.Minute

// User is a directory profile as cached on this device.
type User struct {
	// ToshiID is the canonical identifier assigned by the directory.
	ToshiID        string
	Username       string
	PaymentAddress string

	// Name is the display name.
	Name     string
	About    string
	Location string
	// Avatar is a URL, possibly presigned and short-lived.
	Avatar     string
	IsApp      bool
	Reputation float64

	// CachedAt is when this snapshot was fetched from the directory. Zero
	// means it was never stamped and must be refreshed.
	CachedAt time.Time
}

// NeedsRefresh reports whether the snapshot is older than maxAge at now.
func (u *User) NeedsRefresh(now time.Time, maxAge time.Duration) bool {
	if u.CachedAt.IsZero() {
		return true
	}
	return now.Sub(u.CachedAt) > maxAge
}

// DisplayName falls back to the username when no name is set.
func (u *User) DisplayName() string {
	if u.Name != "" {
		return u.Name
	}
	return u.Username
}
