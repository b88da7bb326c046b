package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flor3z/presence-card/internal/attempt"
	"github.com/flor3z/presence-card/internal/guild"
	"github.com/flor3z/presence-card/internal/lanyard"
	"github.com/flor3z/presence-card/internal/presence"
	"github.com/flor3z/presence-card/internal/profile"
	"github.com/flor3z/presence-card/internal/storage"
)

type fakeGuilds struct {
	mu       sync.Mutex
	snapshot *guild.Snapshot
	calls    []string
}

func (f *fakeGuilds) Reconcile(ctx context.Context, guildID string) (*guild.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if strings.TrimSpace(guildID) == "" {
		return nil, guild.ErrMissingGuildID
	}
	f.calls = append(f.calls, guildID)
	return f.snapshot, nil
}

type fakePresence struct {
	presence *lanyard.Presence
	status   int
	err      error
	calls    int
}

func (f *fakePresence) GetPresence(ctx context.Context, userID string) (*lanyard.Presence, int, error) {
	f.calls++
	return f.presence, f.status, f.err
}

type fakeProfiles struct {
	rec *storage.ProfileRecord
	err error
}

func (f *fakeProfiles) GetProfile() (*storage.ProfileRecord, error) {
	return f.rec, f.err
}

// idleRealtime never delivers anything and ends when closed
type idleRealtime struct {
	closed chan struct{}
	once   sync.Once
}

func (r *idleRealtime) Run(ctx context.Context) error {
	select {
	case <-r.closed:
	case <-ctx.Done():
	}
	return nil
}

func (r *idleRealtime) Close() error {
	r.once.Do(func() { close(r.closed) })
	return nil
}

func idleFactory(string, lanyard.PresenceHandler) presence.Realtime {
	return &idleRealtime{closed: make(chan struct{})}
}

func newTestServer(t *testing.T, deps Deps) *httptest.Server {
	t.Helper()
	if deps.Guilds == nil {
		deps.Guilds = &fakeGuilds{}
	}
	if deps.Presence == nil {
		deps.Presence = &fakePresence{}
	}
	if deps.Realtime == nil {
		deps.Realtime = idleFactory
	}
	if deps.Profiles == nil {
		deps.Profiles = &fakeProfiles{err: storage.ErrProfileNotFound}
	}
	srv := httptest.NewServer(NewServer(deps).Handler())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, method, url string, v interface{}) *http.Response {
	t.Helper()
	req, err := http.NewRequest(method, url, nil)
	require.NoError(t, err)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	if v != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(v))
	}
	return resp
}

func TestGuild_MissingID(t *testing.T) {
	guilds := &fakeGuilds{}
	srv := newTestServer(t, Deps{Guilds: guilds})

	var body map[string]string
	resp := getJSON(t, http.MethodGet, srv.URL+"/api/guild/", &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "guildId is required", body["message"])
	assert.Empty(t, guilds.calls)
}

func TestGuild_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Deps{})

	var body map[string]string
	resp := getJSON(t, http.MethodPost, srv.URL+"/api/guild/123", &body)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["message"])
	assert.Equal(t, http.MethodGet, resp.Header.Get("Allow"))
}

func TestGuild_LiveSnapshotIsCached(t *testing.T) {
	ok := true
	guilds := &fakeGuilds{snapshot: &guild.Snapshot{
		ID:                     "123",
		Name:                   "Home",
		ApproximateMemberCount: 500,
		Source:                 "primary",
		Attempts:               []attempt.Entry{{URL: "primary", Status: 200, OK: &ok}},
	}}
	srv := newTestServer(t, Deps{Guilds: guilds})

	var snap guild.Snapshot
	resp := getJSON(t, http.MethodGet, srv.URL+"/api/guild/123", &snap)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, guildCacheControl, resp.Header.Get("Cache-Control"))
	assert.Equal(t, "Home", snap.Name)
	assert.Equal(t, 500, snap.ApproximateMemberCount)
	assert.Equal(t, []string{"123"}, guilds.calls)
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
}

func TestGuild_FallbackIsNotCached(t *testing.T) {
	guilds := &fakeGuilds{snapshot: &guild.Snapshot{
		ID:       "123",
		Name:     "Discord Server",
		Fallback: true,
		Error:    guild.ErrorWidgetUnavailable,
		Attempts: []attempt.Entry{{URL: "primary", Error: "unknown_error"}},
	}}
	srv := newTestServer(t, Deps{Guilds: guilds})

	var snap guild.Snapshot
	resp := getJSON(t, http.MethodGet, srv.URL+"/api/guild/123", &snap)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, resp.Header.Get("Cache-Control"))
	assert.True(t, snap.Fallback)
	assert.Equal(t, guild.ErrorWidgetUnavailable, snap.Error)
}

func TestPresence_Success(t *testing.T) {
	srv := newTestServer(t, Deps{Presence: &fakePresence{
		presence: &lanyard.Presence{
			DiscordUser:   &lanyard.User{ID: "42", Username: "nova"},
			DiscordStatus: "dnd",
		},
		status: http.StatusOK,
	}})

	var snap presence.Snapshot
	resp := getJSON(t, http.MethodGet, srv.URL+"/api/discord/presence/42", &snap)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, presenceCacheControl, resp.Header.Get("Cache-Control"))
	assert.Equal(t, "42", snap.UserID)
	assert.Equal(t, "dnd", string(snap.Status))
	require.NotNil(t, snap.DiscordUser)
	assert.Equal(t, "nova", snap.DiscordUser.Username)
}

func TestPresence_Errors(t *testing.T) {
	tests := []struct {
		name       string
		fetcher    *fakePresence
		wantStatus int
		wantMsg    string
	}{
		{
			name:       "upstream status passes through",
			fetcher:    &fakePresence{status: 503, err: &lanyard.APIError{StatusCode: 503}},
			wantStatus: http.StatusServiceUnavailable,
			wantMsg:    "Unable to fetch Discord presence from Lanyard API",
		},
		{
			name:       "success false",
			fetcher:    &fakePresence{status: 200, err: lanyard.ErrNotFound},
			wantStatus: http.StatusNotFound,
			wantMsg:    "Discord user not found or Lanyard API error",
		},
		{
			name:       "transport failure",
			fetcher:    &fakePresence{err: errors.New("request failed: connection refused")},
			wantStatus: http.StatusInternalServerError,
			wantMsg:    "Internal server error while fetching Discord presence",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := newTestServer(t, Deps{Presence: tt.fetcher})

			var body map[string]string
			resp := getJSON(t, http.MethodGet, srv.URL+"/api/discord/presence/42", &body)

			assert.Equal(t, tt.wantStatus, resp.StatusCode)
			assert.Equal(t, tt.wantMsg, body["message"])
			assert.Empty(t, resp.Header.Get("Cache-Control"))
		})
	}
}

func TestPresence_MissingUserID(t *testing.T) {
	fetcher := &fakePresence{}
	srv := newTestServer(t, Deps{Presence: fetcher})

	var body map[string]string
	resp := getJSON(t, http.MethodGet, srv.URL+"/api/discord/presence/", &body)

	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "userId is required", body["message"])
	assert.Zero(t, fetcher.calls)
}

func TestProfile(t *testing.T) {
	t.Run("stored", func(t *testing.T) {
		srv := newTestServer(t, Deps{Profiles: &fakeProfiles{
			rec: &storage.ProfileRecord{ID: 1, Profile: profile.Profile{Username: "nova"}},
		}})

		var p profile.Profile
		resp := getJSON(t, http.MethodGet, srv.URL+"/api/profile", &p)
		assert.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "nova", p.Username)
	})

	t.Run("missing", func(t *testing.T) {
		srv := newTestServer(t, Deps{})

		var body map[string]string
		resp := getJSON(t, http.MethodGet, srv.URL+"/api/profile", &body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "Profile not found", body["message"])
	})
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Deps{})

	var body map[string]string
	resp := getJSON(t, http.MethodGet, srv.URL+"/healthz", &body)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}

func TestPresenceStream_RelaysState(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	srv := httptest.NewServer(NewServer(Deps{
		Guilds:   &fakeGuilds{},
		Profiles: &fakeProfiles{},
		Presence: &fakePresence{
			presence: &lanyard.Presence{DiscordStatus: "online"},
			status:   http.StatusOK,
		},
		Realtime: idleFactory,
	}).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/discord/presence/42/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st presence.State
	for st.Status != presence.StatusConnected {
		require.NoError(t, conn.ReadJSON(&st))
	}
	assert.Equal(t, presence.SourceREST, st.Source)
	require.NotNil(t, st.Snapshot)
	assert.Equal(t, "online", string(st.Snapshot.Status))

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	conn.Close()
}

func TestPresenceStream_ReportsError(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	failing := func(string, lanyard.PresenceHandler) presence.Realtime {
		r := &idleRealtime{closed: make(chan struct{})}
		r.Close()
		return r
	}
	srv := httptest.NewServer(NewServer(Deps{
		Guilds:   &fakeGuilds{},
		Profiles: &fakeProfiles{},
		Presence: &fakePresence{status: 200, err: lanyard.ErrNotFound},
		Realtime: failing,
	}).Handler())
	defer srv.Close()

	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/discord/presence/42/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var st presence.State
	for st.Status == "" || st.Status == presence.StatusLoading {
		require.NoError(t, conn.ReadJSON(&st))
	}
	assert.Equal(t, presence.StatusError, st.Status)
	assert.Nil(t, st.Snapshot)
}
