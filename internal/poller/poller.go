package poller

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/flor3z/presence-card/internal/guild"
)

// Reconciler resolves the guild the status reflects
type Reconciler interface {
	Reconcile(ctx context.Context, guildID string) (*guild.Snapshot, error)
}

// StatusSetter updates the bot's "Watching ..." status.
// *discordgo.Session satisfies it.
type StatusSetter interface {
	UpdateWatchStatus(idle int, name string) error
}

// Poller periodically reconciles the configured guild and mirrors its member
// count into the bot status
type Poller struct {
	guilds   Reconciler
	status   StatusSetter
	guildID  string
	interval time.Duration

	mu      sync.Mutex
	last    string
	stopped bool

	stopChan chan struct{}
	wg       sync.WaitGroup
}

// New creates a new Poller
func New(guilds Reconciler, status StatusSetter, guildID string, interval time.Duration) *Poller {
	return &Poller{
		guilds:   guilds,
		status:   status,
		guildID:  guildID,
		interval: interval,
		stopChan: make(chan struct{}),
	}
}

// Start begins the polling loop and blocks until ctx is done or Stop is called.
// It returns at once if Stop already ran.
func (p *Poller) Start(ctx context.Context) {
	// Add under the lock so Stop never waits before a loop has registered
	p.mu.Lock()
	if p.stopped {
		p.mu.Unlock()
		return
	}
	p.wg.Add(1)
	p.mu.Unlock()
	defer p.wg.Done()

	slog.Info("Starting status poller", "guildID", p.guildID, "interval", p.interval)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	// Initial poll
	p.poll(ctx)

	for {
		select {
		case <-ctx.Done():
			slog.Info("Status poller stopped (context cancelled)")
			return
		case <-p.stopChan:
			slog.Info("Status poller stopped")
			return
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

// Stop signals the poller to stop and waits for the loop to exit
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.stopped {
		p.stopped = true
		close(p.stopChan)
	}
	p.mu.Unlock()
	p.wg.Wait()
}

// LastStatus returns the most recently applied status text
func (p *Poller) LastStatus() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

func (p *Poller) poll(ctx context.Context) {
	snapshot, err := p.guilds.Reconcile(ctx, p.guildID)
	if err != nil {
		slog.Error("Failed to reconcile guild", "guildID", p.guildID, "error", err)
		return
	}

	slog.Debug("Guild reconciled",
		"guildID", p.guildID,
		"source", snapshot.Source,
		"fallback", snapshot.Fallback,
		"attempts", snapshot.Attempts,
	)

	text := StatusText(snapshot)
	p.mu.Lock()
	unchanged := text == p.last
	p.mu.Unlock()
	if unchanged {
		slog.Debug("No status change", "status", text)
		return
	}

	if err := p.status.UpdateWatchStatus(0, text); err != nil {
		slog.Error("Failed to update status", "error", err)
		return
	}

	p.mu.Lock()
	p.last = text
	p.mu.Unlock()
	slog.Info("Updated bot status", "status", text)
}

// StatusText renders the watch status for a snapshot
func StatusText(s *guild.Snapshot) string {
	return guild.FormatCount(s.ApproximateMemberCount) + " members"
}
