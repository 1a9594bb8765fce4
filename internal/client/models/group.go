package models

import "time"

// Group is a locally known conversation group. Members holds canonical user
// ids.
type Group struct {
	ID        string
	Title     string
	Avatar    string
	Members   []string
	UpdatedAt time.Time
}

// HasMember reports whether toshiID is in the group.
func (g *Group) HasMember(toshiID string) bool {
	for _, m := range g.Members {
		if m == toshiID {
			return true
		}
	}
	return false
}
