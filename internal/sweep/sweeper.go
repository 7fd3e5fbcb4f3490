// Package sweep runs the periodic deadline check: overdue pending tasks
// with incomplete assignments produce one notification per affected
// assignee. The sweep never mutates task or assignment state.
package sweep

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
)

// tickTimeout bounds the storage work of a single sweep tick.
const tickTimeout = 30 * time.Second

// Publisher delivers realtime events to a recipient's channel.
type Publisher interface {
	Publish(userID string, ev realtime.Event)
}

// Sweeper scans for missed deadlines on a fixed interval.
type Sweeper struct {
	store    store.Store
	pub      Publisher
	logger   *slog.Logger
	interval time.Duration
	now      func() time.Time

	mu      sync.Mutex
	running bool
	stopCh  chan struct{}
}

// New creates a Sweeper with the given tick interval.
func New(s store.Store, pub Publisher, logger *slog.Logger, interval time.Duration) *Sweeper {
	if interval <= 0 {
		interval = 60 * time.Second
	}
	return &Sweeper{
		store:    s,
		pub:      pub,
		logger:   logger,
		interval: interval,
		now:      time.Now,
		stopCh:   make(chan struct{}),
	}
}

// Start launches the sweep loop in a goroutine. The first tick fires
// immediately.
func (s *Sweeper) Start() {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return
	}
	s.running = true
	s.mu.Unlock()

	go s.loop()
}

// Stop halts the sweep loop.
func (s *Sweeper) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return
	}
	close(s.stopCh)
	s.running = false
}

func (s *Sweeper) loop() {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.tick()

	for {
		select {
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *Sweeper) tick() {
	ctx, cancel := context.WithTimeout(context.Background(), tickTimeout)
	defer cancel()

	if _, err := s.RunOnce(ctx); err != nil {
		s.logger.Error("deadline sweep failed", "error", err)
	}
}

// RunOnce performs a single sweep pass and returns how many
// notifications were created. Notifications are deduplicated on
// (task, assignee, deadline): an unchanged overdue condition notifies
// once, a moved deadline that lapses again notifies anew. Inserts run
// sequentially; one slow insert delays the rest of the pass.
func (s *Sweeper) RunOnce(ctx context.Context) (int, error) {
	now := s.now()

	overdue, err := s.store.GetOverdueAssignments(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("finding overdue assignments: %w", err)
	}

	created := 0
	for _, o := range overdue {
		n := model.Notification{
			UserID:  o.UserID,
			Type:    model.NotificationDeadlineMissed,
			Message: fmt.Sprintf("Deadline missed for task %q", o.Task.Title),
			Metadata: map[string]string{
				"task_id": o.Task.ID,
			},
			DedupKey:  dedupKey(o.Task, o.UserID),
			CreatedAt: now,
		}

		inserted, err := s.store.CreateNotification(ctx, n)
		if err != nil {
			s.logger.Error("creating deadline notification",
				"task_id", o.Task.ID, "user_id", o.UserID, "error", err)
			continue
		}
		if inserted == nil {
			// Already notified for this deadline
			continue
		}

		created++
		s.pub.Publish(o.UserID, realtime.NewNotificationEvent(*inserted))
	}

	if created > 0 {
		s.logger.Info("deadline sweep completed",
			"overdue", len(overdue), "notified", created)
	}

	return created, nil
}

// dedupKey identifies one (task, assignee, deadline) overdue condition.
func dedupKey(t model.Task, userID string) string {
	return fmt.Sprintf("%s|%s|%s", t.ID, userID, t.Deadline.UTC().Format(time.RFC3339))
}
