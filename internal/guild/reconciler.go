package guild

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/flor3z/presence-card/internal/attempt"
	"github.com/flor3z/presence-card/internal/discord"
)

// ErrMissingGuildID is returned before any network call when no guild is given
var ErrMissingGuildID = errors.New("guildId is required")

// Fetcher is the subset of the Discord client the reconciler needs
type Fetcher interface {
	WidgetURLs(guildID string) []string
	GetWidget(ctx context.Context, endpoint string) (*discord.Widget, int, error)
	InviteURL(code string) string
	GetInvite(ctx context.Context, endpoint string) (*discord.Invite, int, error)
}

// Config holds the static values used for invites and fallback snapshots
type Config struct {
	InviteCode string
	ServerName string
	ServerIcon string
}

// Reconciler merges the widget and invite endpoints into one Snapshot
type Reconciler struct {
	fetcher Fetcher
	cfg     Config
}

// NewReconciler creates a new guild reconciler
func NewReconciler(fetcher Fetcher, cfg Config) *Reconciler {
	if cfg.ServerName == "" {
		cfg.ServerName = "Discord Server"
	}
	return &Reconciler{fetcher: fetcher, cfg: cfg}
}

// source is one step in the widget fallback chain
type source struct {
	url   string
	fetch func(ctx context.Context, trail *attempt.Log) (*discord.Widget, bool)
}

// inviteCounts holds the counts resolved from the invite endpoint
type inviteCounts struct {
	members  discord.Count
	presence discord.Count
}

// Reconcile resolves a guild. Upstream failures never surface as errors; they
// produce a fallback snapshot and are recorded in its attempt trail.
func (r *Reconciler) Reconcile(ctx context.Context, guildID string) (*Snapshot, error) {
	guildID = strings.TrimSpace(guildID)
	if guildID == "" {
		return nil, ErrMissingGuildID
	}

	slog.Debug("Fetching guild data", "guildID", guildID)
	trail := attempt.NewLog()

	for _, src := range r.sources(guildID) {
		w, ok := src.fetch(ctx, trail)
		if !ok {
			continue
		}

		slog.Debug("Guild widget received",
			"guildID", guildID,
			"name", w.Name,
			"members", len(w.Members),
			"source", src.url,
		)

		counts := r.fetchInviteCounts(ctx, trail)
		return r.fromWidget(guildID, src.url, w, counts, trail), nil
	}

	slog.Warn("No widget data returned, using fallback", "guildID", guildID, "attempts", trail.Len())
	counts := r.fetchInviteCounts(ctx, trail)
	return r.fallback(guildID, counts, trail), nil
}

// sources builds the widget fallback chain in priority order
func (r *Reconciler) sources(guildID string) []source {
	urls := r.fetcher.WidgetURLs(guildID)
	sources := make([]source, 0, len(urls))
	for _, u := range urls {
		endpoint := u
		sources = append(sources, source{
			url: endpoint,
			fetch: func(ctx context.Context, trail *attempt.Log) (*discord.Widget, bool) {
				w, status, err := r.fetcher.GetWidget(ctx, endpoint)
				record(trail, endpoint, status, err)
				if err != nil {
					slog.Warn("Widget endpoint failed", "url", endpoint, "status", status, "error", err)
					return nil, false
				}
				return w, true
			},
		})
	}
	return sources
}

// fetchInviteCounts resolves server-wide counts. It returns nil when no invite
// is configured or the call fails.
func (r *Reconciler) fetchInviteCounts(ctx context.Context, trail *attempt.Log) *inviteCounts {
	if r.cfg.InviteCode == "" {
		return nil
	}

	endpoint := r.fetcher.InviteURL(r.cfg.InviteCode)
	inv, status, err := r.fetcher.GetInvite(ctx, endpoint)
	record(trail, endpoint, status, err)
	if err != nil {
		slog.Warn("Invite counts fetch failed", "status", status, "error", err)
		return nil
	}

	counts := &inviteCounts{
		members:  inv.ApproximateMemberCount,
		presence: inv.ApproximatePresenceCount,
	}
	m, _ := counts.members.Get()
	p, _ := counts.presence.Get()
	slog.Debug("Invite counts received", "memberCount", m, "presenceCount", p)
	return counts
}

// fromWidget applies count precedence to a live widget.
// Members: invite, widget approximate count, sample length, 0.
// Presence: invite, widget approximate presence, widget presence_count, sample length, 0.
func (r *Reconciler) fromWidget(guildID, src string, w *discord.Widget, counts *inviteCounts, trail *attempt.Log) *Snapshot {
	var inviteMembers, invitePresence discord.Count
	if counts != nil {
		inviteMembers, invitePresence = counts.members, counts.presence
	}
	sample := discord.NewCount(len(w.Members))

	members, _ := discord.FirstCount(inviteMembers, w.ApproximateMemberCount, sample)
	presence, _ := discord.FirstCount(invitePresence, w.ApproximatePresenceCount, w.PresenceCount, sample)

	s := &Snapshot{
		ID:                       firstNonEmpty(w.ID, guildID),
		Name:                     w.Name,
		Icon:                     firstNonEmpty(w.Icon, r.cfg.ServerIcon),
		InstantInvite:            firstNonEmpty(w.InstantInvite, discord.InviteLink(r.cfg.InviteCode)),
		Members:                  w.Members,
		PresenceCount:            presence,
		ApproximateMemberCount:   members,
		ApproximatePresenceCount: presence,
		Source:                   src,
		Attempts:                 trail.Entries(),
	}
	if s.Members == nil {
		s.Members = []discord.WidgetMember{}
	}
	return s
}

// fallback builds a snapshot from static configuration, overridden by any
// invite counts that were still reachable.
func (r *Reconciler) fallback(guildID string, counts *inviteCounts, trail *attempt.Log) *Snapshot {
	s := &Snapshot{
		ID:            guildID,
		Name:          r.cfg.ServerName,
		Icon:          r.cfg.ServerIcon,
		InstantInvite: discord.InviteLink(r.cfg.InviteCode),
		Members:       []discord.WidgetMember{},
		Attempts:      trail.Entries(),
		Fallback:      true,
		Error:         ErrorWidgetUnavailable,
	}
	if counts != nil {
		s.ApproximateMemberCount, _ = counts.members.Get()
		s.ApproximatePresenceCount, _ = counts.presence.Get()
		s.PresenceCount = s.ApproximatePresenceCount
	}
	return s
}

// record appends exactly one entry for the outcome of one call
func record(trail *attempt.Log, url string, status int, err error) {
	var apiErr *discord.APIError
	switch {
	case status == 0:
		trail.Failure(url, err)
	case err == nil, errors.As(err, &apiErr), errors.Is(err, discord.ErrInvalidWidget):
		trail.Response(url, status)
	default:
		trail.Unreadable(url, status, err)
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
