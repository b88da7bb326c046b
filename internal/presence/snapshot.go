package presence

import (
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/presence-card/internal/lanyard"
)

// Snapshot is the normalized presence of one Discord user
type Snapshot struct {
	UserID             string             `json:"user_id"`
	DiscordUser        *lanyard.User      `json:"discord_user,omitempty"`
	Status             discordgo.Status   `json:"discord_status"`
	Activities         []lanyard.Activity `json:"activities"`
	Spotify            *lanyard.Spotify   `json:"spotify,omitempty"`
	ListeningToSpotify bool               `json:"listening_to_spotify"`
	KV                 map[string]string  `json:"kv,omitempty"`
	FetchedAt          time.Time          `json:"fetched_at"`
}

// NormalizeStatus maps an upstream status onto online, idle, dnd or offline.
// Anything else, including invisible, is offline.
func NormalizeStatus(raw string) discordgo.Status {
	switch s := discordgo.Status(strings.ToLower(strings.TrimSpace(raw))); s {
	case discordgo.StatusOnline, discordgo.StatusIdle, discordgo.StatusDoNotDisturb, discordgo.StatusOffline:
		return s
	default:
		return discordgo.StatusOffline
	}
}

// Normalize builds a Snapshot from a Lanyard payload
func Normalize(userID string, p *lanyard.Presence, fetchedAt time.Time) *Snapshot {
	s := &Snapshot{
		UserID:     userID,
		Status:     discordgo.StatusOffline,
		Activities: []lanyard.Activity{},
		FetchedAt:  fetchedAt,
	}
	if p == nil {
		return s
	}

	s.DiscordUser = p.DiscordUser
	s.Status = NormalizeStatus(p.DiscordStatus)
	if p.Activities != nil {
		s.Activities = p.Activities
	}
	s.Spotify = p.Spotify
	s.ListeningToSpotify = p.ListeningToSpotify
	s.KV = p.KV

	if s.UserID == "" && p.DiscordUser != nil {
		s.UserID = p.DiscordUser.ID
	}
	return s
}

// DisplayName prefers the global name over the username
func (s *Snapshot) DisplayName() string {
	if s.DiscordUser == nil {
		return ""
	}
	if s.DiscordUser.GlobalName != "" {
		return s.DiscordUser.GlobalName
	}
	return s.DiscordUser.Username
}

// AvatarURL returns the user's avatar on the Discord CDN
func (s *Snapshot) AvatarURL() string {
	if s.DiscordUser == nil || s.DiscordUser.ID == "" {
		return ""
	}
	if s.DiscordUser.Avatar == "" {
		return discordgo.EndpointCDN + "embed/avatars/0.png"
	}
	return discordgo.EndpointUserAvatar(s.DiscordUser.ID, s.DiscordUser.Avatar) + "?size=128"
}

// DecorationURL returns the avatar decoration preset, if any
func (s *Snapshot) DecorationURL() string {
	if s.DiscordUser == nil || s.DiscordUser.AvatarDecorationData == nil || s.DiscordUser.AvatarDecorationData.Asset == "" {
		return ""
	}
	return discordgo.EndpointCDN + "avatar-decoration-presets/" + s.DiscordUser.AvatarDecorationData.Asset + ".png"
}

// StatusLabel is the human-readable status
func StatusLabel(status discordgo.Status) string {
	switch status {
	case discordgo.StatusOnline:
		return "Online"
	case discordgo.StatusIdle:
		return "Idle"
	case discordgo.StatusDoNotDisturb:
		return "Do Not Disturb"
	default:
		return "Offline"
	}
}
