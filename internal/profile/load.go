package profile

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"
)

// FromEnv builds a profile from VITE_* variables, using the card defaults for
// anything unset.
func FromEnv(getenv func(string) string) Profile {
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}
	flag := func(key string, def bool) bool {
		v := getenv(key)
		if v == "" {
			return def
		}
		return v == "true"
	}
	number := func(key string, def int) int {
		n, err := strconv.Atoi(getenv(key))
		if err != nil {
			return def
		}
		return n
	}

	return Profile{
		Username: env("VITE_USERNAME", "User"),
		Bio:      env("VITE_BIO", ""),
		Status:   env("VITE_STATUS", "online"),
		Pronouns: env("VITE_PRONOUNS", ""),
		Banner:   env("VITE_BANNER_IMAGE", "/assets/profilebanner.jpg"),
		Avatar: Avatar{
			Src:        env("VITE_AVATAR_IMAGE", "/assets/album-cover.jpg"),
			Alt:        "Profile Avatar",
			UseDiscord: true,
		},
		ViewImage: env("VITE_VIEW_IMAGE", ""),
		ViewMedia: env("VITE_VIEW_MEDIA", ""),
		Discord: Discord{
			UserID:         env("VITE_DC_PROFILE_UID", ""),
			ShowStatus:     true,
			ShowActivity:   true,
			ShowDecoration: true,
			ServerID:       env("VITE_DISCORD_SERVER_ID", ""),
			ServerIcon:     env("VITE_DISCORD_SERVER_ICON", "/assets/servericon.jpg"),
			ServerName:     env("VITE_DISCORD_SERVER_NAME", ""),
		},
		Spotify: Spotify{
			Enabled:             true,
			EmbedURL:            env("VITE_SPOTIFY_PLAYLIST", ""),
			Height:              100,
			Compact:             true,
			ShowInDiscordStatus: true,
		},
		Background: Background{
			Src:          env("VITE_BACKGROUND_VIDEO", "/assets/background.mp4"),
			VideoOpacity: 50,
		},
		Audio: Audio{
			Src:           env("VITE_AUDIO_SRC", "/assets/audio.mp3"),
			Autoplay:      true,
			Loop:          true,
			DefaultVolume: 1,
		},
		Cursor: Cursor{
			Enabled:        true,
			Style:          "dot",
			Emoji:          "✨",
			PrimaryColor:   "180 100% 50%",
			SecondaryColor: "300 100% 50%",
		},
		SocialLinks: []SocialLink{
			{Platform: "facebook", URL: env("VITE_FACEBOOK_LINK", "")},
			{Platform: "twitter", URL: env("VITE_TWITTER_LINK", "")},
			{Platform: "instagram", URL: env("VITE_INSTAGRAM_LINK", "")},
			{Platform: "youtube", URL: env("VITE_YOUTUBE_LINK", "")},
			{Platform: "github", URL: env("VITE_GITHUB_LINK", "")},
			{Platform: "linkedin", URL: env("VITE_LINKEDIN_LINK", "")},
			{Platform: "email", URL: env("VITE_EMAIL_LINK", "")},
			{Platform: "website", URL: env("VITE_WEBSITE_LINK", "")},
		},
		CustomLinks: []CustomLink{},
		Badges:      parseBadges(getenv("VITE_BADGES")),
		Theme: Theme{
			GlowCyan:   env("VITE_THEME_GLOW_CYAN", "180 100% 50%"),
			GlowPurple: env("VITE_THEME_GLOW_PURPLE", "270 100% 60%"),
			GlowPink:   env("VITE_THEME_GLOW_PINK", "320 100% 60%"),
		},
		Effects: Effects{
			TiltEnabled:  flag("VITE_EFFECTS_TILT_ENABLED", true),
			TiltMaxAngle: number("VITE_EFFECTS_TILT_MAX_ANGLE", 20),
			NoiseEnabled: flag("VITE_EFFECTS_NOISE_ENABLED", false),
			ShowViews:    flag("VITE_EFFECTS_SHOW_VIEWS", true),
			ViewCount:    number("VITE_VIEW_COUNT", 0),
		},
		Footer: Footer{
			Text:      env("VITE_FOOTER_TEXT", "Made with ❤️ by Efti"),
			Heart:     flag("VITE_FOOTER_HEART", true),
			BrandName: env("VITE_FOOTER_BRAND_NAME", "web-card-guns.lol"),
			BrandURL:  env("VITE_FOOTER_BRAND_URL", "https://web-card-guns.lol"),
		},
	}
}

// parseBadges decodes a JSON badge list; anything invalid yields no badges
func parseBadges(raw string) []Badge {
	badges := []Badge{}
	if raw == "" {
		return badges
	}
	if err := json.Unmarshal([]byte(raw), &badges); err != nil || badges == nil {
		return []Badge{}
	}
	return badges
}

// LoadFile overlays a YAML profile onto base. Keys missing from the file keep
// their base values; lists present in the file replace the base lists.
func LoadFile(path string, base Profile) (Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return base, fmt.Errorf("failed to read profile file: %w", err)
	}

	p := base
	if err := yaml.Unmarshal(data, &p); err != nil {
		return base, fmt.Errorf("failed to parse profile file: %w", err)
	}
	return p, nil
}
