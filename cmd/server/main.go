package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/flor3z/presence-card/internal/api"
	"github.com/flor3z/presence-card/internal/bot"
	"github.com/flor3z/presence-card/internal/config"
	"github.com/flor3z/presence-card/internal/discord"
	"github.com/flor3z/presence-card/internal/guild"
	"github.com/flor3z/presence-card/internal/lanyard"
	"github.com/flor3z/presence-card/internal/presence"
	"github.com/flor3z/presence-card/internal/profile"
	"github.com/flor3z/presence-card/internal/storage"
)

const shutdownTimeout = 10 * time.Second

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("Failed to load configuration", "error", err)
		os.Exit(1)
	}

	// Set up logging
	setupLogging(cfg.LogLevel)

	slog.Info("Starting presence card server")

	if err := run(cfg); err != nil {
		slog.Error("Server exited with error", "error", err)
		os.Exit(1)
	}

	slog.Info("Server stopped")
}

func run(cfg *config.Config) error {
	// Initialize storage
	repo, err := storage.NewRepository(cfg.DatabasePath)
	if err != nil {
		return err
	}
	defer repo.Close()

	if err := seedProfile(repo, cfg); err != nil {
		return err
	}

	discordClient := discord.NewClient(discord.Options{
		BaseURL:       cfg.DiscordAPIURL,
		LegacyBaseURL: cfg.DiscordLegacyAPIURL,
		Timeout:       cfg.HTTPTimeout,
	})
	reconciler := guild.NewReconciler(discordClient, guild.Config{
		InviteCode: cfg.InviteCode,
		ServerName: cfg.ServerName,
		ServerIcon: cfg.ServerIcon,
	})
	lanyardClient := lanyard.NewClient(cfg.LanyardRESTURL, cfg.HTTPTimeout)
	realtime := presence.LanyardRealtime(cfg.LanyardSocketURL)

	server := api.NewServer(api.Deps{
		Guilds:   reconciler,
		Presence: lanyardClient,
		Realtime: realtime,
		Profiles: repo,
	})
	httpServer := &http.Server{
		Addr:              cfg.ListenAddr,
		Handler:           server.Handler(),
		ReadHeaderTimeout: cfg.HTTPTimeout,
	}

	// Create context that cancels on interrupt
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigChan:
			slog.Info("Shutting down...")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigChan)
	}()

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		slog.Info("HTTP server listening", "addr", cfg.ListenAddr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer shutdownCancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	if cfg.BotEnabled() {
		b, err := bot.New(cfg, bot.Deps{
			Guilds:   reconciler,
			Presence: lanyardClient,
			Realtime: realtime,
		})
		if err != nil {
			cancel()
			g.Wait()
			return err
		}

		g.Go(func() error {
			if err := b.Start(ctx); err != nil {
				b.Stop()
				return err
			}
			slog.Info("Bot is running")
			<-ctx.Done()

			// Stop the bot gracefully
			return b.Stop()
		})
	} else {
		slog.Info("DISCORD_BOT_TOKEN not set, bot disabled")
	}

	return g.Wait()
}

// seedProfile stores the profile built from the environment on first start.
// A profile file, when configured, always replaces the stored profile.
func seedProfile(repo *storage.Repository, cfg *config.Config) error {
	p := profile.FromEnv(os.Getenv)

	if cfg.ProfileFile == "" {
		created, err := repo.Seed(p)
		if err != nil {
			return err
		}
		if created {
			slog.Info("Seeded profile from environment")
		}
		return nil
	}

	p, err := profile.LoadFile(cfg.ProfileFile, p)
	if err != nil {
		return err
	}
	if _, err := repo.UpdateProfile(p); err != nil {
		return err
	}
	slog.Info("Loaded profile from file", "path", cfg.ProfileFile)
	return nil
}

func setupLogging(level string) {
	var logLevel slog.Level
	switch level {
	case "debug":
		logLevel = slog.LevelDebug
	case "info":
		logLevel = slog.LevelInfo
	case "warn":
		logLevel = slog.LevelWarn
	case "error":
		logLevel = slog.LevelError
	default:
		logLevel = slog.LevelInfo
	}

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel,
	})
	slog.SetDefault(slog.New(handler))
}
