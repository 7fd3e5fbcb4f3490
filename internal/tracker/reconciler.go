package tracker

import (
	"context"

	"github.com/nlechev/taskflow/internal/apperr"
	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
)

// SetAssignmentCompletion flips an assignment's completion flag.
//
// Completion is one-way: asking to un-complete an already completed
// assignment fails with an invalid-transition error and mutates
// nothing. Marking complete stops the clock for the (task, user) pair,
// freezes total_hours_spent and the difference against the effective
// estimate onto the record, and completes the task itself once every
// assignment is done. Freezing at completion time keeps finished work
// stable while in-progress numbers stay live.
func (t *Tracker) SetAssignmentCompletion(ctx context.Context, taskID, userID string, completed bool) (*model.Assignment, error) {
	l := t.userLock(userID)
	l.Lock()
	defer l.Unlock()

	a, err := t.store.GetAssignment(ctx, taskID, userID)
	if err != nil {
		return nil, err
	}

	if !completed {
		if a.IsCompleted {
			return nil, apperr.InvalidTransition("completed tasks cannot be unmarked")
		}
		if err := t.store.MarkAssignmentIncomplete(ctx, taskID, userID); err != nil {
			return nil, err
		}
		a.IsCompleted = false
		return a, nil
	}

	task, err := t.store.GetTaskByID(ctx, taskID)
	if err != nil {
		return nil, err
	}

	// Completion closes the pair's open session, so the clock stops for
	// the assignee too.
	open, err := t.store.GetOpenSession(ctx, userID)
	if err != nil {
		return nil, err
	}
	hadOpenSession := open != nil && open.TaskID == taskID

	res, err := t.store.CompleteAssignment(ctx, taskID, userID, a.EffectiveTimeEstimate(*task), t.now())
	if err != nil {
		return nil, err
	}

	if hadOpenSession {
		t.pub.Publish(userID, realtime.NewSessionEvent(userID, "", realtime.SessionStop))
	}

	return &res.Assignment, nil
}
