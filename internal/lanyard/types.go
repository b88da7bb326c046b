package lanyard

import (
	"github.com/bwmarrin/discordgo"
)

// Presence is the presence payload Lanyard serves over REST and the socket
type Presence struct {
	DiscordUser        *User             `json:"discord_user,omitempty"`
	DiscordStatus      string            `json:"discord_status"`
	Activities         []Activity        `json:"activities"`
	Spotify            *Spotify          `json:"spotify,omitempty"`
	ListeningToSpotify bool              `json:"listening_to_spotify"`
	KV                 map[string]string `json:"kv,omitempty"`
}

// User is the Discord account mirrored by Lanyard
type User struct {
	ID                   string                `json:"id"`
	Username             string                `json:"username"`
	Avatar               string                `json:"avatar"`
	Discriminator        string                `json:"discriminator"`
	GlobalName           string                `json:"global_name,omitempty"`
	AvatarDecorationData *AvatarDecorationData `json:"avatar_decoration_data,omitempty"`
}

// AvatarDecorationData identifies the avatar decoration preset
type AvatarDecorationData struct {
	Asset string `json:"asset"`
	SKUID string `json:"sku_id"`
}

// Activity is one rich-presence activity
type Activity struct {
	Name          string                 `json:"name"`
	Type          discordgo.ActivityType `json:"type"`
	State         string                 `json:"state,omitempty"`
	Details       string                 `json:"details,omitempty"`
	Timestamps    *Timestamps            `json:"timestamps,omitempty"`
	Assets        *Assets                `json:"assets,omitempty"`
	ApplicationID string                 `json:"application_id,omitempty"`
}

// Timestamps are unix milliseconds
type Timestamps struct {
	Start int64 `json:"start,omitempty"`
	End   int64 `json:"end,omitempty"`
}

// Assets are activity image keys and hover texts
type Assets struct {
	LargeImage string `json:"large_image,omitempty"`
	LargeText  string `json:"large_text,omitempty"`
	SmallImage string `json:"small_image,omitempty"`
	SmallText  string `json:"small_text,omitempty"`
}

// Spotify is Lanyard's dedicated Spotify field
type Spotify struct {
	TrackID     string      `json:"track_id"`
	Song        string      `json:"song"`
	Artist      string      `json:"artist"`
	Album       string      `json:"album"`
	AlbumArtURL string      `json:"album_art_url"`
	Timestamps  *Timestamps `json:"timestamps,omitempty"`
}
