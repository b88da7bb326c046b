package bot

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/flor3z/presence-card/internal/config"
	"github.com/flor3z/presence-card/internal/poller"
	"github.com/flor3z/presence-card/internal/presence"
)

// responseTimeout bounds the lookups behind one command
const responseTimeout = 10 * time.Second

// Deps are the lookups the bot's commands and poller use
type Deps struct {
	Guilds   poller.Reconciler
	Presence presence.Fetcher
	Realtime presence.RealtimeFactory
}

// Bot represents the Discord bot instance
type Bot struct {
	config   *config.Config
	session  *discordgo.Session
	deps     Deps
	registry *Registry
	poller   *poller.Poller
}

// New creates a new Bot instance
func New(cfg *config.Config, deps Deps) (*Bot, error) {
	// Create Discord session
	session, err := discordgo.New("Bot " + cfg.BotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to create Discord session: %w", err)
	}

	// Slash commands need no privileged intents
	session.Identify.Intents = discordgo.IntentsGuilds

	registry := NewRegistry()
	registry.Register(&presenceCommand{
		userID:   cfg.UserID,
		rest:     deps.Presence,
		realtime: deps.Realtime,
	})
	registry.Register(&serverCommand{
		guildID: cfg.GuildID,
		guilds:  deps.Guilds,
	})

	b := &Bot{
		config:   cfg,
		session:  session,
		deps:     deps,
		registry: registry,
	}

	// Register command handlers
	b.registerHandlers()

	return b, nil
}

// Start opens the Discord connection and starts background tasks
func (b *Bot) Start(ctx context.Context) error {
	// Open Discord connection
	if err := b.session.Open(); err != nil {
		return fmt.Errorf("failed to open Discord connection: %w", err)
	}

	slog.Info("Connected to Discord", "user", b.session.State.User.Username)

	// Register slash commands
	if err := b.registerCommands(); err != nil {
		return fmt.Errorf("failed to register commands: %w", err)
	}

	// The status mirrors the configured guild only
	if b.config.GuildID != "" {
		b.poller = poller.New(b.deps.Guilds, b.session, b.config.GuildID, b.config.StatusInterval)
		go b.poller.Start(ctx)
	}

	return nil
}

// Stop gracefully shuts down the bot
func (b *Bot) Stop() error {
	// Stop the poller
	if b.poller != nil {
		b.poller.Stop()
	}

	// Close Discord session
	if b.session != nil {
		return b.session.Close()
	}

	return nil
}

// registerHandlers sets up Discord event handlers
func (b *Bot) registerHandlers() {
	b.session.AddHandler(b.handleInteraction)
	b.session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		slog.Info("Bot is ready", "guilds", len(r.Guilds))
	})
}

// handleInteraction processes slash command interactions
func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	data := i.ApplicationCommandData()
	slog.Debug("Received command", "command", data.Name, "guild", i.GuildID)

	cmd, err := b.registry.Get(data.Name)
	if err != nil {
		slog.Warn("Unknown command", "command", data.Name)
		return
	}

	// Respond immediately to avoid timeout
	if err := s.InteractionRespond(i.Interaction, &discordgo.InteractionResponse{
		Type: discordgo.InteractionResponseDeferredChannelMessageWithSource,
	}); err != nil {
		slog.Error("Failed to defer interaction", "command", data.Name, "error", err)
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), responseTimeout)
	defer cancel()

	resp, err := cmd.Respond(ctx)
	if err != nil {
		slog.Error("Command failed", "command", data.Name, "error", err)
		b.editResponse(s, i, &discordgo.InteractionResponseData{Content: "Something went wrong. Please try again."})
		return
	}
	b.editResponse(s, i, resp)
}

func (b *Bot) editResponse(s *discordgo.Session, i *discordgo.InteractionCreate, data *discordgo.InteractionResponseData) {
	edit := &discordgo.WebhookEdit{}
	if data.Content != "" {
		edit.Content = &data.Content
	}
	if len(data.Embeds) > 0 {
		edit.Embeds = &data.Embeds
	}
	if _, err := s.InteractionResponseEdit(i.Interaction, edit); err != nil {
		slog.Error("Failed to edit response", "error", err)
	}
}
