package realtime_test

import (
	"testing"
	"time"

	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
)

func recv(t *testing.T, ch <-chan realtime.Event) realtime.Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return realtime.Event{}
	}
}

func TestPublishReachesSubscriber(t *testing.T) {
	hub := realtime.NewHub()

	ch, cancel := hub.Subscribe("alice")
	defer cancel()

	hub.Publish("alice", realtime.NewSessionEvent("alice", "t1", realtime.SessionStart))

	ev := recv(t, ch)
	if ev.Name != realtime.EventWorkSessionUpdate {
		t.Fatalf("event name = %q, want %q", ev.Name, realtime.EventWorkSessionUpdate)
	}
	upd, ok := ev.Payload.(realtime.WorkSessionUpdate)
	if !ok {
		t.Fatalf("payload type = %T", ev.Payload)
	}
	if upd.TaskID != "t1" || upd.Type != realtime.SessionStart {
		t.Fatalf("payload = %+v", upd)
	}
}

func TestPublishIsScopedToRecipient(t *testing.T) {
	hub := realtime.NewHub()

	aliceCh, cancelAlice := hub.Subscribe("alice")
	defer cancelAlice()
	bobCh, cancelBob := hub.Subscribe("bob")
	defer cancelBob()

	hub.Publish("alice", realtime.NewNotificationEvent(model.Notification{ID: "n1", UserID: "alice"}))

	recv(t, aliceCh)
	select {
	case ev := <-bobCh:
		t.Fatalf("bob received %+v", ev)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestMultipleSubscribersSameUser(t *testing.T) {
	hub := realtime.NewHub()

	ch1, cancel1 := hub.Subscribe("alice")
	defer cancel1()
	ch2, cancel2 := hub.Subscribe("alice")
	defer cancel2()

	hub.Publish("alice", realtime.NewSessionEvent("alice", "t1", realtime.SessionStop))

	recv(t, ch1)
	recv(t, ch2)
}

func TestCancelRemovesSubscriber(t *testing.T) {
	hub := realtime.NewHub()

	_, cancel := hub.Subscribe("alice")
	if got := hub.SubscriberCount("alice"); got != 1 {
		t.Fatalf("subscribers = %d, want 1", got)
	}

	cancel()
	cancel() // idempotent

	if got := hub.SubscriberCount("alice"); got != 0 {
		t.Fatalf("subscribers after cancel = %d, want 0", got)
	}

	// Publishing to a user with no subscribers is a no-op.
	hub.Publish("alice", realtime.NewSessionEvent("alice", "t1", realtime.SessionStart))
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := realtime.NewHub()

	_, cancel := hub.Subscribe("alice")
	defer cancel()

	// Nobody drains the channel; publishes beyond the buffer are dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			hub.Publish("alice", realtime.NewSessionEvent("alice", "t1", realtime.SessionStart))
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a full subscriber")
	}
}
