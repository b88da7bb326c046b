package poller

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/flor3z/presence-card/internal/guild"
)

type fakeGuilds struct {
	mu    sync.Mutex
	snaps []*guild.Snapshot
	err   error
	calls int
}

func (f *fakeGuilds) Reconcile(ctx context.Context, guildID string) (*guild.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	i := f.calls - 1
	if i >= len(f.snaps) {
		i = len(f.snaps) - 1
	}
	return f.snaps[i], nil
}

type fakeStatus struct {
	mu      sync.Mutex
	applied []string
}

func (f *fakeStatus) UpdateWatchStatus(idle int, name string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.applied = append(f.applied, name)
	return nil
}

func (f *fakeStatus) get() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.applied...)
}

func TestStatusText(t *testing.T) {
	assert.Equal(t, "16.4K members", StatusText(&guild.Snapshot{ApproximateMemberCount: 16400}))
	assert.Equal(t, "0 members", StatusText(&guild.Snapshot{}))
}

func TestPoller_UpdatesOnlyOnChange(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	guilds := &fakeGuilds{snaps: []*guild.Snapshot{
		{ApproximateMemberCount: 500},
		{ApproximateMemberCount: 500},
		{ApproximateMemberCount: 1200},
	}}
	status := &fakeStatus{}
	p := New(guilds, status, "123", 5*time.Millisecond)

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Start(context.Background())
	}()

	require.Eventually(t, func() bool { return len(status.get()) == 2 }, 2*time.Second, 2*time.Millisecond)
	p.Stop()
	<-done

	assert.Equal(t, []string{"500 members", "1.2K members"}, status.get())
	assert.Equal(t, "1.2K members", p.LastStatus())
}

func TestPoller_ReconcileErrorKeepsStatus(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	guilds := &fakeGuilds{err: errors.New("guildId is required")}
	status := &fakeStatus{}
	p := New(guilds, status, "", time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Start(ctx)
	}()

	require.Eventually(t, func() bool {
		guilds.mu.Lock()
		defer guilds.mu.Unlock()
		return guilds.calls == 1
	}, 2*time.Second, 2*time.Millisecond)
	cancel()
	<-done
	p.Stop()

	assert.Empty(t, status.get())
	assert.Empty(t, p.LastStatus())
}

func TestPoller_StopBeforeStart(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	guilds := &fakeGuilds{snaps: []*guild.Snapshot{{ApproximateMemberCount: 500}}}
	status := &fakeStatus{}
	p := New(guilds, status, "123", time.Millisecond)

	p.Stop()

	done := make(chan struct{})
	go func() {
		defer close(done)
		p.Start(context.Background())
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Start kept running after Stop")
	}
	p.Stop()

	guilds.mu.Lock()
	defer guilds.mu.Unlock()
	assert.Zero(t, guilds.calls)
	assert.Empty(t, status.get())
}

func TestPoller_ConcurrentStartStop(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	for i := 0; i < 50; i++ {
		p := New(&fakeGuilds{snaps: []*guild.Snapshot{{}}}, &fakeStatus{}, "123", time.Hour)
		go p.Start(context.Background())
		p.Stop()
	}
}
