package discord

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return NewClient(Options{BaseURL: srv.URL + "/api/v10", LegacyBaseURL: srv.URL + "/legacy"})
}

func TestWidgetURLs_Order(t *testing.T) {
	c := NewClient(Options{})
	urls := c.WidgetURLs("123")
	require.Len(t, urls, 2)
	assert.Equal(t, "https://discord.com/api/v10/guilds/123/widget.json", urls[0])
	assert.Equal(t, "https://discordapp.com/api/guilds/123/widget.json", urls[1])
}

func TestInviteURL(t *testing.T) {
	c := NewClient(Options{})
	assert.Equal(t,
		"https://discord.com/api/v10/invites/abc?with_counts=true&with_expiration=true",
		c.InviteURL("abc"))
	assert.Equal(t, "https://discord.gg/abc", InviteLink("abc"))
	assert.Equal(t, "", InviteLink(""))
}

func TestGetWidget_Success(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v10/guilds/123/widget.json", r.URL.Path)
		w.Write([]byte(`{"id":"123","name":"Test","members":[{"id":"1","username":"a","status":"online"}],"presence_count":40}`))
	}))

	w, status, err := c.GetWidget(context.Background(), c.WidgetURLs("123")[0])
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, "Test", w.Name)
	require.Len(t, w.Members, 1)

	n, ok := w.PresenceCount.Get()
	assert.True(t, ok)
	assert.Equal(t, 40, n)

	_, ok = w.ApproximateMemberCount.Get()
	assert.False(t, ok)
}

func TestGetWidget_MissingName(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"id":"123"}`))
	}))

	_, status, err := c.GetWidget(context.Background(), c.WidgetURLs("123")[0])
	assert.ErrorIs(t, err, ErrInvalidWidget)
	assert.Equal(t, http.StatusOK, status)
}

func TestGetWidget_Disabled(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		w.Write([]byte(`{"message":"Widget Disabled","code":50004}`))
	}))

	_, status, err := c.GetWidget(context.Background(), c.WidgetURLs("123")[1])
	require.Error(t, err)
	assert.Equal(t, http.StatusForbidden, status)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, http.StatusForbidden, apiErr.StatusCode)
	assert.Contains(t, apiErr.Body, "Widget Disabled")
}

func TestGetInvite_Counts(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v10/invites/abc", r.URL.Path)
		assert.Equal(t, "true", r.URL.Query().Get("with_counts"))
		w.Write([]byte(`{"code":"abc","approximate_member_count":16410,"approximate_presence_count":"lots"}`))
	}))

	inv, _, err := c.GetInvite(context.Background(), c.InviteURL("abc"))
	require.NoError(t, err)

	n, ok := inv.ApproximateMemberCount.Get()
	assert.True(t, ok)
	assert.Equal(t, 16410, n)

	_, ok = inv.ApproximatePresenceCount.Get()
	assert.False(t, ok, "non-numeric count must decode as unset")
}

func TestCount_Decode(t *testing.T) {
	tests := []struct {
		in   string
		want int
		set  bool
	}{
		{`5`, 5, true},
		{`0`, 0, true},
		{`null`, 0, false},
		{`"7"`, 0, false},
		{`-1`, 0, false},
		{`2147483647`, 2147483647, true},
		{`1e20`, 0, false},
		{`9.3e18`, 0, false},
	}

	for _, tt := range tests {
		var c Count
		require.NoError(t, json.Unmarshal([]byte(tt.in), &c), tt.in)
		n, ok := c.Get()
		assert.Equal(t, tt.set, ok, tt.in)
		assert.Equal(t, tt.want, n, tt.in)
	}
}

func TestFirstCount(t *testing.T) {
	n, ok := FirstCount(Count{}, NewCount(0), NewCount(9))
	assert.True(t, ok)
	assert.Equal(t, 0, n)

	_, ok = FirstCount(Count{}, Count{})
	assert.False(t, ok)
}
