// Package tracker owns the work-session and time-accounting core: it
// keeps the one-open-session-per-user invariant, computes elapsed
// hours, and freezes totals when an assignment completes.
package tracker

import (
	"context"
	"sync"
	"time"

	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
)

// Publisher delivers realtime events to a recipient's channel.
type Publisher interface {
	Publish(userID string, ev realtime.Event)
}

// Tracker coordinates session starts/stops and completion
// reconciliation against the store.
type Tracker struct {
	store store.Store
	pub   Publisher
	now   func() time.Time

	// mu guards locks; each user's operations are serialized by their
	// own mutex so close-then-open pairs from concurrent requests
	// cannot interleave.
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Tracker backed by the given store and event publisher.
func New(s store.Store, pub Publisher) *Tracker {
	return &Tracker{
		store: s,
		pub:   pub,
		now:   time.Now,
		locks: make(map[string]*sync.Mutex),
	}
}

// userLock returns the mutex serializing session mutations for a user.
func (t *Tracker) userLock(userID string) *sync.Mutex {
	t.mu.Lock()
	defer t.mu.Unlock()

	l, ok := t.locks[userID]
	if !ok {
		l = &sync.Mutex{}
		t.locks[userID] = l
	}
	return l
}

// WorkHistoryEntry is a session with its computed duration.
type WorkHistoryEntry struct {
	model.WorkSession
	HoursSpent float64 `json:"hours_spent"`
}

// StartSession closes any open session for the user and opens a new one
// on the given task, then emits a workSessionUpdate start event.
// Repeated starts always leave exactly one open session, but every call
// creates a new session row, including repeated starts on the same task.
func (t *Tracker) StartSession(ctx context.Context, userID, taskID string) (*model.WorkSession, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	// The task must exist before the clock starts on it.
	if _, err := t.store.GetTaskByID(ctx, taskID); err != nil {
		return nil, err
	}

	sess, err := t.store.StartSession(ctx, userID, taskID, t.now())
	if err != nil {
		return nil, err
	}

	t.pub.Publish(userID, realtime.NewSessionEvent(userID, taskID, realtime.SessionStart))
	return sess, nil
}

// StopSession closes the user's open session and emits a
// workSessionUpdate stop event. NotFound when no session is open.
func (t *Tracker) StopSession(ctx context.Context, userID string) (*model.WorkSession, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	sess, err := t.store.CloseOpenSession(ctx, userID, t.now())
	if err != nil {
		return nil, err
	}

	t.pub.Publish(userID, realtime.NewSessionEvent(userID, "", realtime.SessionStop))
	return sess, nil
}

// HoursSpent sums the fractional hours of every session the user has
// logged on the task. An open session contributes up to now, so the
// value keeps moving between calls until the session closes.
func (t *Tracker) HoursSpent(ctx context.Context, taskID, userID string) (float64, error) {
	sessions, err := t.store.GetSessions(ctx, taskID, userID)
	if err != nil {
		return 0, err
	}

	now := t.now()
	var total float64
	for _, s := range sessions {
		total += s.Hours(now)
	}
	return total, nil
}

// CurrentTask returns the task tied to the user's open session, or nil
// when the user is not working anything. An overdue open session is
// still reported; overdue flagging is the caller's concern.
func (t *Tracker) CurrentTask(ctx context.Context, userID string) (*model.Task, error) {
	sess, err := t.store.GetOpenSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	if sess == nil {
		return nil, nil
	}
	return t.store.GetTaskByID(ctx, sess.TaskID)
}

// WorkHistory lists every session of a user with its computed duration,
// newest first.
func (t *Tracker) WorkHistory(ctx context.Context, userID string) ([]WorkHistoryEntry, error) {
	sessions, err := t.store.GetSessionsForUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := t.now()
	entries := make([]WorkHistoryEntry, 0, len(sessions))
	for _, s := range sessions {
		entries = append(entries, WorkHistoryEntry{
			WorkSession: s,
			HoursSpent:  s.Hours(now),
		})
	}
	return entries, nil
}
