package discord

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

// Invite is the subset of the invite resolution payload used for server-wide counts
type Invite struct {
	Code                     string       `json:"code"`
	Guild                    *InviteGuild `json:"guild,omitempty"`
	ApproximateMemberCount   Count        `json:"approximate_member_count"`
	ApproximatePresenceCount Count        `json:"approximate_presence_count"`
	ExpiresAt                *time.Time   `json:"expires_at,omitempty"`
}

// InviteGuild is the partial guild embedded in an invite
type InviteGuild struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	Icon string `json:"icon,omitempty"`
}

// InviteURL returns the invite-counts endpoint for an invite code
func (c *Client) InviteURL(code string) string {
	return fmt.Sprintf("%s/invites/%s?with_counts=true&with_expiration=true",
		c.baseURL, url.PathEscape(code))
}

// InviteLink returns the public join link for an invite code
func InviteLink(code string) string {
	if code == "" {
		return ""
	}
	return "https://discord.gg/" + code
}

// GetInvite resolves an invite with approximate counts
func (c *Client) GetInvite(ctx context.Context, endpoint string) (*Invite, int, error) {
	var inv Invite
	status, err := c.get(ctx, endpoint, &inv)
	if err != nil {
		return nil, status, fmt.Errorf("failed to get invite: %w", err)
	}
	return &inv, status, nil
}
