package discord

import (
	"context"
	"fmt"
	"net/url"
)

// Widget is the public guild widget payload (GET /guilds/{id}/widget.json).
// Members is a sample capped by Discord at roughly 100 entries.
type Widget struct {
	ID                       string          `json:"id"`
	Name                     string          `json:"name"`
	Icon                     string          `json:"icon,omitempty"`
	InstantInvite            string          `json:"instant_invite,omitempty"`
	Channels                 []WidgetChannel `json:"channels,omitempty"`
	Members                  []WidgetMember  `json:"members"`
	PresenceCount            Count           `json:"presence_count"`
	ApproximateMemberCount   Count           `json:"approximate_member_count"`
	ApproximatePresenceCount Count           `json:"approximate_presence_count"`
}

// WidgetChannel is a voice channel listed in the widget
type WidgetChannel struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Position int    `json:"position"`
}

// WidgetMember is one entry of the widget member sample
type WidgetMember struct {
	ID            string          `json:"id"`
	Username      string          `json:"username"`
	Discriminator string          `json:"discriminator,omitempty"`
	Avatar        string          `json:"avatar,omitempty"`
	Status        string          `json:"status"`
	AvatarURL     string          `json:"avatar_url,omitempty"`
	ChannelID     string          `json:"channel_id,omitempty"`
	Activity      *WidgetActivity `json:"activity,omitempty"`
}

// WidgetActivity is the trimmed activity the widget exposes per member
type WidgetActivity struct {
	Name string `json:"name"`
}

// WidgetURLs returns the widget endpoints for a guild in priority order:
// the versioned API first, then the legacy domain alias.
func (c *Client) WidgetURLs(guildID string) []string {
	id := url.PathEscape(guildID)
	return []string{
		fmt.Sprintf("%s/guilds/%s/widget.json", c.baseURL, id),
		fmt.Sprintf("%s/guilds/%s/widget.json", c.legacyBaseURL, id),
	}
}

// GetWidget fetches a widget from one endpoint. The HTTP status is returned
// alongside the error so callers can record it.
func (c *Client) GetWidget(ctx context.Context, endpoint string) (*Widget, int, error) {
	var w Widget
	status, err := c.get(ctx, endpoint, &w)
	if err != nil {
		return nil, status, fmt.Errorf("failed to get widget: %w", err)
	}
	if w.Name == "" {
		return nil, status, ErrInvalidWidget
	}
	return &w, status, nil
}
