package presence

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callLog struct {
	mu    sync.Mutex
	calls []string

	offlineEntered chan struct{}
	offlineRelease chan struct{}
}

func (l *callLog) MarkOnline(_ context.Context, userID string) error {
	l.add("online:" + userID)
	return nil
}

func (l *callLog) MarkOffline(_ context.Context, userID string) error {
	if l.offlineEntered != nil {
		close(l.offlineEntered)
		<-l.offlineRelease
	}
	l.add("offline:" + userID)
	return nil
}

func (l *callLog) LastSeen(context.Context, string) (time.Time, bool, error) {
	return time.Time{}, false, nil
}

func (l *callLog) add(call string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.calls = append(l.calls, call)
}

func (l *callLog) Calls() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]string(nil), l.calls...)
}

func TestMirrorSkipsStaleTransitions(t *testing.T) {
	log := &callLog{}
	var online atomic.Bool
	mirror := NewMirror(log, func(string) bool { return online.Load() })
	ctx := context.Background()

	require.NoError(t, mirror.Joined(ctx, "u1"))
	online.Store(true)
	require.NoError(t, mirror.Joined(ctx, "u1"))
	require.NoError(t, mirror.Left(ctx, "u1"))
	online.Store(false)
	require.NoError(t, mirror.Left(ctx, "u1"))

	assert.Equal(t, []string{"online:u1", "offline:u1"}, log.Calls())
}

func TestMirrorReconnectDuringLeaveEndsOnline(t *testing.T) {
	log := &callLog{offlineEntered: make(chan struct{}), offlineRelease: make(chan struct{})}
	var online atomic.Bool
	mirror := NewMirror(log, func(string) bool { return online.Load() })
	ctx := context.Background()

	leftDone := make(chan struct{})
	go func() {
		defer close(leftDone)
		_ = mirror.Left(ctx, "u1")
	}()
	<-log.offlineEntered

	// the user reconnects while the offline write is in flight
	online.Store(true)
	joinedDone := make(chan struct{})
	go func() {
		defer close(joinedDone)
		_ = mirror.Joined(ctx, "u1")
	}()

	select {
	case <-joinedDone:
		t.Fatal("join must wait for the in-flight leave")
	case <-time.After(50 * time.Millisecond):
	}

	close(log.offlineRelease)
	<-leftDone
	<-joinedDone

	assert.Equal(t, []string{"offline:u1", "online:u1"}, log.Calls())
}

func TestMirrorNilTrackerIsNoop(t *testing.T) {
	mirror := NewMirror(nil, func(string) bool { return true })
	require.NoError(t, mirror.Joined(context.Background(), "u1"))
	assert.Equal(t, NoopStore{}, mirror.Tracker())
}
