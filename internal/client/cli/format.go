package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/models"
)

const timeLayout = "2006-01-02 15:04:05"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format(timeLayout)
}

func formatUser(u *models.User) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (@%s)\n", u.DisplayName(), u.Username)
	fmt.Fprintf(&b, "  id:       %s\n", u.ToshiID)
	if u.PaymentAddress != "" {
		fmt.Fprintf(&b, "  payment:  %s\n", u.PaymentAddress)
	}
	if u.About != "" {
		fmt.Fprintf(&b, "  about:    %s\n", u.About)
	}
	if u.Location != "" {
		fmt.Fprintf(&b, "  location: %s\n", u.Location)
	}
	if u.Avatar != "" {
		fmt.Fprintf(&b, "  avatar:   %s\n", u.Avatar)
	}
	if u.IsApp {
		b.WriteString("  app:      yes\n")
	}
	fmt.Fprintf(&b, "  rating:   %.1f\n", u.Reputation)
	fmt.Fprintf(&b, "  cached:   %s", formatTime(u.CachedAt))
	return b.String()
}

func formatUserLine(u *models.User) string {
	return fmt.Sprintf("%-20s @%-16s %s", u.DisplayName(), u.Username, u.ToshiID)
}

func formatGroup(g *models.Group) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s]\n", g.Title, g.ID)
	if g.Avatar != "" {
		fmt.Fprintf(&b, "  avatar:  %s\n", g.Avatar)
	}
	fmt.Fprintf(&b, "  members: %d\n", len(g.Members))
	for _, m := range g.Members {
		fmt.Fprintf(&b, "    %s\n", m)
	}
	fmt.Fprintf(&b, "  updated: %s", formatTime(g.UpdatedAt))
	return b.String()
}
