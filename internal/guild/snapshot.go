package guild

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/presence-card/internal/attempt"
	"github.com/flor3z/presence-card/internal/discord"
)

// Error codes attached to degraded snapshots
const (
	ErrorWidgetUnavailable = "widget_unavailable"
)

// Snapshot is the reconciled view of one guild. When every widget endpoint
// fails it is built from static configuration and Fallback is set.
type Snapshot struct {
	ID                       string                 `json:"id"`
	Name                     string                 `json:"name"`
	Icon                     string                 `json:"icon,omitempty"`
	InstantInvite            string                 `json:"instant_invite,omitempty"`
	Members                  []discord.WidgetMember `json:"members"`
	PresenceCount            int                    `json:"presence_count"`
	ApproximateMemberCount   int                    `json:"approximate_member_count"`
	ApproximatePresenceCount int                    `json:"approximate_presence_count"`
	Source                   string                 `json:"source,omitempty"`
	Attempts                 []attempt.Entry        `json:"attempts"`
	Fallback                 bool                   `json:"fallback,omitempty"`
	Error                    string                 `json:"error,omitempty"`
}

// Degraded reports whether the snapshot did not come from a live widget
func (s *Snapshot) Degraded() bool {
	return s.Fallback || s.Error != ""
}

// IconURL resolves the snapshot icon into a displayable URL
func (s *Snapshot) IconURL() string {
	return IconURL(s.ID, s.Icon)
}

var iconHash = regexp.MustCompile(`^(a_)?[a-fA-F0-9]{10,}$`)

// IconURL turns a guild icon into a URL. Absolute URLs and site-relative paths
// pass through; Discord icon hashes resolve to the CDN.
func IconURL(guildID, icon string) string {
	switch {
	case icon == "":
		return ""
	case strings.HasPrefix(icon, "http"), strings.HasPrefix(icon, "/"):
		return icon
	case iconHash.MatchString(icon):
		return discordgo.EndpointGuildIcon(guildID, icon) + "?size=256"
	default:
		return icon
	}
}

// FormatCount renders a member count compactly (16400 -> "16.4K")
func FormatCount(n int) string {
	if n >= 1000 {
		return strconv.FormatFloat(float64(n)/1000, 'f', 1, 64) + "K"
	}
	return strconv.Itoa(n)
}
