package model

import (
	"testing"
	"time"
)

func TestEisenhowerCategory(t *testing.T) {
	cases := []struct {
		importance, urgency int
		want                string
	}{
		{8, 9, CategoryDo},
		{6, 6, CategoryDo},
		{9, 2, CategorySchedule},
		{3, 8, CategoryDelegate},
		{5, 5, CategoryEliminate},
		{1, 1, CategoryEliminate},
	}
	for _, tc := range cases {
		task := Task{Importance: tc.importance, Urgency: tc.urgency}
		if got := task.EisenhowerCategory(); got != tc.want {
			t.Errorf("(%d,%d) = %q, want %q", tc.importance, tc.urgency, got, tc.want)
		}
	}
}

func TestOverdue(t *testing.T) {
	now := time.Date(2026, 8, 15, 12, 0, 0, 0, time.UTC)

	pendingLate := Task{Status: TaskStatusPending, Deadline: now.Add(-time.Minute)}
	if !pendingLate.Overdue(now) {
		t.Error("pending task past its deadline should be overdue")
	}

	pendingEarly := Task{Status: TaskStatusPending, Deadline: now.Add(time.Minute)}
	if pendingEarly.Overdue(now) {
		t.Error("pending task before its deadline should not be overdue")
	}

	completedLate := Task{Status: TaskStatusCompleted, Deadline: now.Add(-time.Minute)}
	if completedLate.Overdue(now) {
		t.Error("completed task is never overdue")
	}
}

func TestSessionHours(t *testing.T) {
	start := time.Date(2026, 8, 15, 10, 0, 0, 0, time.UTC)
	end := start.Add(90 * time.Minute)

	closed := WorkSession{StartTime: start, EndTime: &end}
	if got := closed.Hours(start.Add(10 * time.Hour)); got != 1.5 {
		t.Errorf("closed session hours = %v, want 1.5 regardless of now", got)
	}
	if closed.Open() {
		t.Error("session with an end time reported open")
	}

	open := WorkSession{StartTime: start}
	if got := open.Hours(start.Add(15 * time.Minute)); got != 0.25 {
		t.Errorf("open session hours = %v, want 0.25", got)
	}
	if !open.Open() {
		t.Error("session without an end time reported closed")
	}
}

func TestEffectiveTimeEstimate(t *testing.T) {
	taskEst := 8.0
	task := Task{TimeEstimate: &taskEst}

	override := 3.0
	a := Assignment{TimeEstimate: &override}
	if got := a.EffectiveTimeEstimate(task); got == nil || *got != 3.0 {
		t.Errorf("override estimate = %v, want 3.0", got)
	}

	a = Assignment{}
	if got := a.EffectiveTimeEstimate(task); got == nil || *got != 8.0 {
		t.Errorf("fallback estimate = %v, want 8.0", got)
	}

	if got := a.EffectiveTimeEstimate(Task{}); got != nil {
		t.Errorf("estimate = %v, want nil when neither side has one", got)
	}
}
