package profile

// Profile is the static configuration of the card
type Profile struct {
	Username    string       `json:"username" yaml:"username"`
	Bio         string       `json:"bio" yaml:"bio"`
	Status      string       `json:"status" yaml:"status"`
	Pronouns    string       `json:"pronouns" yaml:"pronouns"`
	Banner      string       `json:"banner" yaml:"banner"`
	Avatar      Avatar       `json:"avatar" yaml:"avatar"`
	ViewImage   string       `json:"viewImage,omitempty" yaml:"viewImage"`
	ViewMedia   string       `json:"viewMedia,omitempty" yaml:"viewMedia"`
	Discord     Discord      `json:"discord" yaml:"discord"`
	Spotify     Spotify      `json:"spotify" yaml:"spotify"`
	Background  Background   `json:"background" yaml:"background"`
	Audio       Audio        `json:"audio" yaml:"audio"`
	Cursor      Cursor       `json:"cursor" yaml:"cursor"`
	SocialLinks []SocialLink `json:"socialLinks" yaml:"socialLinks"`
	CustomLinks []CustomLink `json:"customLinks" yaml:"customLinks"`
	Badges      []Badge      `json:"badges" yaml:"badges"`
	Theme       Theme        `json:"theme" yaml:"theme"`
	Effects     Effects      `json:"effects" yaml:"effects"`
	Footer      Footer       `json:"footer" yaml:"footer"`
}

// Avatar is the profile picture, optionally taken from Discord
type Avatar struct {
	Src        string `json:"src" yaml:"src"`
	Alt        string `json:"alt" yaml:"alt"`
	UseDiscord bool   `json:"useDiscord" yaml:"useDiscord"`
}

// Discord holds the ids the presence and guild widgets are built from
type Discord struct {
	UserID         string `json:"userId" yaml:"userId"`
	ShowStatus     bool   `json:"showStatus" yaml:"showStatus"`
	ShowActivity   bool   `json:"showActivity" yaml:"showActivity"`
	ShowDecoration bool   `json:"showDecoration" yaml:"showDecoration"`
	ServerID       string `json:"serverId,omitempty" yaml:"serverId"`
	ServerIcon     string `json:"serverIcon,omitempty" yaml:"serverIcon"`
	ServerName     string `json:"serverName,omitempty" yaml:"serverName"`
}

// Spotify configures the embedded Spotify player
type Spotify struct {
	Enabled             bool   `json:"enabled" yaml:"enabled"`
	EmbedURL            string `json:"embedUrl" yaml:"embedUrl"`
	Height              int    `json:"height" yaml:"height"`
	Compact             bool   `json:"compact" yaml:"compact"`
	ShowInDiscordStatus bool   `json:"showInDiscordStatus" yaml:"showInDiscordStatus"`
}

// Background is the page background image or video
type Background struct {
	Src          string `json:"src" yaml:"src"`
	VideoOpacity int    `json:"videoOpacity" yaml:"videoOpacity"`
	VideoBlur    int    `json:"videoBlur" yaml:"videoBlur"`
}

// Audio is the background track
type Audio struct {
	Src           string  `json:"src" yaml:"src"`
	Autoplay      bool    `json:"autoplay" yaml:"autoplay"`
	Loop          bool    `json:"loop" yaml:"loop"`
	DefaultVolume float64 `json:"defaultVolume" yaml:"defaultVolume"`
}

// Cursor configures the custom cursor
type Cursor struct {
	Enabled        bool   `json:"enabled" yaml:"enabled"`
	Style          string `json:"style" yaml:"style"` // dot, ring or emoji
	Emoji          string `json:"emoji" yaml:"emoji"`
	PrimaryColor   string `json:"primaryColor" yaml:"primaryColor"`
	SecondaryColor string `json:"secondaryColor" yaml:"secondaryColor"`
}

// SocialLink is an icon link to a social platform
type SocialLink struct {
	Platform string `json:"platform" yaml:"platform"`
	URL      string `json:"url" yaml:"url"`
}

// CustomLink is a titled link card
type CustomLink struct {
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	URL         string `json:"url" yaml:"url"`
	Icon        string `json:"icon" yaml:"icon"`
}

// Badge is a small labelled icon next to the username
type Badge struct {
	Icon  string `json:"icon" yaml:"icon"`
	Label string `json:"label" yaml:"label"`
}

// Theme holds the glow accent colors
type Theme struct {
	GlowCyan   string `json:"glowCyan" yaml:"glowCyan"`
	GlowPurple string `json:"glowPurple" yaml:"glowPurple"`
	GlowPink   string `json:"glowPink" yaml:"glowPink"`
}

// Effects toggles card animations and the view counter
type Effects struct {
	TiltEnabled  bool `json:"tiltEnabled" yaml:"tiltEnabled"`
	TiltMaxAngle int  `json:"tiltMaxAngle" yaml:"tiltMaxAngle"`
	NoiseEnabled bool `json:"noiseEnabled" yaml:"noiseEnabled"`
	ShowViews    bool `json:"showViews" yaml:"showViews"`
	ViewCount    int  `json:"viewCount" yaml:"viewCount"`
}

// Footer is the text and brand link under the card
type Footer struct {
	Text      string `json:"text" yaml:"text"`
	Heart     bool   `json:"heart" yaml:"heart"`
	BrandName string `json:"brandName" yaml:"brandName"`
	BrandURL  string `json:"brandUrl" yaml:"brandUrl"`
}
