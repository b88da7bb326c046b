package bot

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/presence-card/internal/guild"
	"github.com/flor3z/presence-card/internal/poller"
	"github.com/flor3z/presence-card/internal/presence"
)

// Embed colors per Discord status
var statusColors = map[discordgo.Status]int{
	discordgo.StatusOnline:       0x23a55a,
	discordgo.StatusIdle:         0xf0b232,
	discordgo.StatusDoNotDisturb: 0xf23f43,
	discordgo.StatusOffline:      0x80848e,
}

const (
	spotifyColor = 0x1db954
	serverColor  = 0x5865f2
)

// presenceCommand answers /presence with the configured user's presence
type presenceCommand struct {
	userID   string
	rest     presence.Fetcher
	realtime presence.RealtimeFactory
}

func (c *presenceCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "presence",
		Description: "Show the current Discord presence of the card owner",
	}
}

func (c *presenceCommand) Respond(ctx context.Context) (*discordgo.InteractionResponseData, error) {
	if c.userID == "" {
		return &discordgo.InteractionResponseData{Content: "No Discord user is configured."}, nil
	}

	tracker := presence.NewTracker(c.userID, c.rest, c.realtime)
	if err := tracker.Start(ctx); err != nil {
		return nil, fmt.Errorf("failed to start presence tracker: %w", err)
	}
	defer tracker.Close()

	st, err := tracker.Wait(ctx)
	if err != nil {
		slog.Warn("Presence lookup timed out", "userID", c.userID, "error", err)
	}
	if st.Status != presence.StatusConnected || st.Snapshot == nil {
		return &discordgo.InteractionResponseData{Content: "Presence is unavailable right now."}, nil
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{presenceEmbed(st.Snapshot)},
	}, nil
}

// serverCommand answers /server with the reconciled guild
type serverCommand struct {
	guildID string
	guilds  poller.Reconciler
}

func (c *serverCommand) Definition() *discordgo.ApplicationCommand {
	return &discordgo.ApplicationCommand{
		Name:        "server",
		Description: "Show member counts of the configured Discord server",
	}
}

func (c *serverCommand) Respond(ctx context.Context) (*discordgo.InteractionResponseData, error) {
	if c.guildID == "" {
		return &discordgo.InteractionResponseData{Content: "No Discord server is configured."}, nil
	}

	snapshot, err := c.guilds.Reconcile(ctx, c.guildID)
	if err != nil {
		return nil, fmt.Errorf("failed to reconcile guild: %w", err)
	}

	return &discordgo.InteractionResponseData{
		Embeds: []*discordgo.MessageEmbed{serverEmbed(snapshot)},
	}, nil
}

func presenceEmbed(s *presence.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Author: &discordgo.MessageEmbedAuthor{
			Name:    s.DisplayName(),
			IconURL: s.AvatarURL(),
		},
		Description: presence.StatusLabel(s.Status),
		Color:       statusColors[s.Status],
		Timestamp:   s.FetchedAt.Format(time.RFC3339),
	}
	if embed.Author.Name == "" {
		embed.Author.Name = s.UserID
	}

	if game, ok := presence.GameActivity(s.Activities); ok {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Playing",
			Value: joinLines(game.Name, game.Details, game.State),
		})
		if game.Assets != nil {
			if url := presence.AssetURL(game.ApplicationID, game.Assets.LargeImage); url != "" {
				embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: url}
			}
		}
	}

	if track, ok := presence.SelectSpotify(s); ok {
		value := track.Song()
		if track.Artist() != "" {
			value += " by " + track.Artist()
		}
		if track.TrackID() != "" {
			value = fmt.Sprintf("[%s](https://open.spotify.com/track/%s)", value, track.TrackID())
		}
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{
			Name:  "Listening to Spotify",
			Value: value,
		})
		if embed.Thumbnail == nil && track.AlbumArtURL() != "" {
			embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: track.AlbumArtURL()}
			embed.Color = spotifyColor
		}
	}

	return embed
}

func serverEmbed(s *guild.Snapshot) *discordgo.MessageEmbed {
	embed := &discordgo.MessageEmbed{
		Title: s.Name,
		Color: serverColor,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Members", Value: guild.FormatCount(s.ApproximateMemberCount), Inline: true},
			{Name: "Online", Value: guild.FormatCount(s.ApproximatePresenceCount), Inline: true},
		},
	}
	if s.InstantInvite != "" {
		embed.URL = s.InstantInvite
	}
	if icon := s.IconURL(); strings.HasPrefix(icon, "http") {
		embed.Thumbnail = &discordgo.MessageEmbedThumbnail{URL: icon}
	}
	if s.Fallback {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: "Widget unavailable, showing configured server details"}
	}
	return embed
}

func joinLines(parts ...string) string {
	lines := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			lines = append(lines, p)
		}
	}
	return strings.Join(lines, "\n")
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	slog.Info("Registering slash commands")

	// Overwrite replaces commands left over from earlier versions
	registered, err := b.session.ApplicationCommandBulkOverwrite(
		b.session.State.User.ID,
		"", // Empty string = global command
		b.registry.Definitions(),
	)
	if err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	slog.Info("Slash commands registered", "count", len(registered))
	return nil
}
