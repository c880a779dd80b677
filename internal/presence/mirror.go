package presence

import (
	"context"
	"hash/fnv"
	"sync"
)

const mirrorStripes = 64

// Mirror writes join and leave transitions to a Tracker. The online check and
// the write happen under a per-user lock, so the last record written for a user
// always matches the registry state seen by the last caller.
type Mirror struct {
	tracker  Tracker
	isOnline func(userID string) bool
	locks    [mirrorStripes]sync.Mutex
}

// NewMirror builds a Mirror. isOnline reports the live registry state.
func NewMirror(tracker Tracker, isOnline func(userID string) bool) *Mirror {
	if tracker == nil {
		tracker = NoopStore{}
	}
	return &Mirror{tracker: tracker, isOnline: isOnline}
}

// Joined records userID as online unless it has already gone again.
func (m *Mirror) Joined(ctx context.Context, userID string) error {
	mu := m.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	if !m.isOnline(userID) {
		return nil
	}
	return m.tracker.MarkOnline(ctx, userID)
}

// Left records userID as offline once no connection for it remains.
func (m *Mirror) Left(ctx context.Context, userID string) error {
	mu := m.lock(userID)
	mu.Lock()
	defer mu.Unlock()

	if m.isOnline(userID) {
		return nil
	}
	return m.tracker.MarkOffline(ctx, userID)
}

// Tracker exposes the underlying store for last-seen reads.
func (m *Mirror) Tracker() Tracker {
	return m.tracker
}

func (m *Mirror) lock(userID string) *sync.Mutex {
	h := fnv.New32a()
	_, _ = h.Write([]byte(userID))
	return &m.locks[h.Sum32()%mirrorStripes]
}
