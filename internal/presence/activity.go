package presence

import (
	"strings"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/presence-card/internal/lanyard"
)

// Activity names that never count as a game
var blockedActivityNames = map[string]struct{}{
	"":              {},
	"Activity":      {},
	"Hang Status":   {},
	"Custom Status": {},
}

// GameActivity returns the first activity that is neither Spotify nor a
// custom status and carries a meaningful name.
func GameActivity(activities []lanyard.Activity) (lanyard.Activity, bool) {
	for _, a := range activities {
		if a.Type == discordgo.ActivityTypeListening || a.Type == discordgo.ActivityTypeCustom {
			continue
		}
		if _, blocked := blockedActivityNames[strings.TrimSpace(a.Name)]; blocked {
			continue
		}
		return a, true
	}
	return lanyard.Activity{}, false
}

// SpotifySource is the track being played, from either Lanyard's dedicated
// Spotify field or a listening activity.
type SpotifySource interface {
	TrackID() string
	Song() string
	Artist() string
	Album() string
	AlbumArtURL() string
}

// DedicatedSpotify wraps Lanyard's spotify field
type DedicatedSpotify struct {
	Spotify lanyard.Spotify
}

func (d DedicatedSpotify) TrackID() string     { return d.Spotify.TrackID }
func (d DedicatedSpotify) Song() string        { return d.Spotify.Song }
func (d DedicatedSpotify) Artist() string      { return d.Spotify.Artist }
func (d DedicatedSpotify) Album() string       { return d.Spotify.Album }
func (d DedicatedSpotify) AlbumArtURL() string { return d.Spotify.AlbumArtURL }

// ActivityDerived wraps a listening activity (type 2)
type ActivityDerived struct {
	Activity lanyard.Activity
}

// TrackID is not carried by the activity itself
func (a ActivityDerived) TrackID() string { return "" }

// Song falls back to the activity name when details are empty
func (a ActivityDerived) Song() string {
	if a.Activity.Details != "" {
		return a.Activity.Details
	}
	return a.Activity.Name
}

func (a ActivityDerived) Artist() string { return a.Activity.State }

func (a ActivityDerived) Album() string {
	if a.Activity.Assets == nil {
		return ""
	}
	return a.Activity.Assets.LargeText
}

func (a ActivityDerived) AlbumArtURL() string {
	if a.Activity.Assets == nil {
		return ""
	}
	return AssetURL(a.Activity.ApplicationID, a.Activity.Assets.LargeImage)
}

// SelectSpotify prefers the dedicated field while the user is listening,
// then the first listening activity.
func SelectSpotify(s *Snapshot) (SpotifySource, bool) {
	if s == nil {
		return nil, false
	}
	if s.ListeningToSpotify && s.Spotify != nil {
		return DedicatedSpotify{Spotify: *s.Spotify}, true
	}
	for _, a := range s.Activities {
		if a.Type == discordgo.ActivityTypeListening {
			return ActivityDerived{Activity: a}, true
		}
	}
	return nil, false
}

// AssetURL resolves an activity image key into a URL
func AssetURL(applicationID, asset string) string {
	switch {
	case asset == "":
		return ""
	case strings.HasPrefix(asset, "spotify:"):
		return "https://i.scdn.co/image/" + strings.TrimPrefix(asset, "spotify:")
	case strings.HasPrefix(asset, "mp:external/"):
		return "https://media.discordapp.net/external/" + strings.TrimPrefix(asset, "mp:external/")
	case strings.HasPrefix(asset, "http://"), strings.HasPrefix(asset, "https://"):
		return asset
	case applicationID != "":
		return discordgo.EndpointCDN + "app-assets/" + applicationID + "/" + asset + ".png"
	default:
		return ""
	}
}
