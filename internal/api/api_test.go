package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nlechev/taskflow/internal/api"
	"github.com/nlechev/taskflow/internal/auth"
	"github.com/nlechev/taskflow/internal/model"
	"github.com/nlechev/taskflow/internal/realtime"
	"github.com/nlechev/taskflow/internal/store"
	"github.com/nlechev/taskflow/internal/tracker"
	"github.com/nlechev/taskflow/tests/testutil"
)

type testEnv struct {
	router *gin.Engine
	store  *store.SQLiteStore
	hub    *realtime.Hub
	auth   *auth.Manager

	alice model.User
	bob   model.User
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()

	gin.SetMode(gin.TestMode)

	s := testutil.NewTestStore(t)
	hub := realtime.NewHub()
	tr := tracker.New(s, hub)
	am := auth.NewManager("test-secret", time.Hour)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	srv := api.NewServer(s, tr, hub, am, logger)

	env := &testEnv{
		router: srv.SetupRouter(),
		store:  s,
		hub:    hub,
		auth:   am,
	}
	env.alice = env.seedUser(t, "alice", "alice@example.com")
	env.bob = env.seedUser(t, "bob", "bob@example.com")
	return env
}

func (e *testEnv) seedUser(t *testing.T, name, email string) model.User {
	t.Helper()

	hashed, err := auth.HashPassword("pass12345")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := model.User{ID: name + "-id", Name: name, Email: email, PasswordHash: hashed}
	if err := e.store.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("seed user %s: %v", email, err)
	}
	return u
}

func (e *testEnv) seedTask(t *testing.T, owner model.User, title string, deadline time.Time) model.Task {
	t.Helper()

	task := model.Task{
		ID:         title + "-id",
		Title:      title,
		Deadline:   deadline,
		StartDate:  time.Now().UTC().Add(-time.Hour),
		Importance: 5, Urgency: 5,
		OwnerID: owner.ID,
	}
	if err := e.store.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("seed task %s: %v", title, err)
	}
	return task
}

func doRequest(t *testing.T, r http.Handler, method, path string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func (e *testEnv) bearerFor(t *testing.T, u model.User) map[string]string {
	t.Helper()
	tok, err := e.auth.GenerateToken(u)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	return map[string]string{"Authorization": "Bearer " + tok}
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), dst); err != nil {
		t.Fatalf("unmarshal response %q: %v", w.Body.String(), err)
	}
}

func TestAuth_RegisterAndLogin(t *testing.T) {
	env := setupTestEnv(t)

	regBody := map[string]any{
		"name":     "Carol",
		"email":    "carol@example.com",
		"password": "pass12345",
	}
	w := doRequest(t, env.router, http.MethodPost, "/register", regBody, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("register status=%d body=%s", w.Code, w.Body.String())
	}

	// Same email again is rejected.
	w = doRequest(t, env.router, http.MethodPost, "/register", regBody, nil)
	if w.Code != http.StatusConflict {
		t.Fatalf("duplicate register expected 409 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost, "/login",
		map[string]any{"email": "carol@example.com", "password": "pass12345"}, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("login status=%d body=%s", w.Code, w.Body.String())
	}

	var resp map[string]any
	decode(t, w, &resp)
	if resp["token"] == nil || resp["token"] == "" {
		t.Fatalf("expected token in response: %v", resp)
	}

	w = doRequest(t, env.router, http.MethodPost, "/login",
		map[string]any{"email": "carol@example.com", "password": "wrong-password"}, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("bad password expected 401 got=%d", w.Code)
	}
}

func TestAuth_MissingToken(t *testing.T) {
	env := setupTestEnv(t)

	w := doRequest(t, env.router, http.MethodGet, "/tasks", nil, nil)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 without token got=%d", w.Code)
	}

	w = doRequest(t, env.router, http.MethodGet, "/tasks", nil,
		map[string]string{"Authorization": "Bearer not-a-token"})
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 with bad token got=%d", w.Code)
	}
}

func TestTasks_CRUDAndOwnership(t *testing.T) {
	env := setupTestEnv(t)

	aliceAuth := env.bearerFor(t, env.alice)
	bobAuth := env.bearerFor(t, env.bob)

	create := map[string]any{
		"title":    "Write report",
		"deadline": time.Now().UTC().Add(48 * time.Hour).Format(time.RFC3339),
	}
	w := doRequest(t, env.router, http.MethodPost, "/tasks", create, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", w.Code, w.Body.String())
	}

	var created model.Task
	decode(t, w, &created)
	if created.ID == "" || created.OwnerID != env.alice.ID {
		t.Fatalf("created task = %+v", created)
	}
	if created.Importance != 5 || created.Urgency != 5 {
		t.Fatalf("defaults not applied: %+v", created)
	}
	if created.Status != model.TaskStatusPending {
		t.Fatalf("status = %q, want pending", created.Status)
	}

	w = doRequest(t, env.router, http.MethodGet, "/tasks/"+created.ID, nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", w.Code, w.Body.String())
	}
	var view map[string]any
	decode(t, w, &view)
	if view["eisenhower_category"] == nil || view["assignees"] == nil {
		t.Fatalf("expected enriched view, got %v", view)
	}

	// Only the owner may modify.
	upd := map[string]any{"title": "Renamed"}
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+created.ID, upd, bobAuth)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner update expected 403 got=%d", w.Code)
	}
	w = doRequest(t, env.router, http.MethodPut, "/tasks/"+created.ID, upd, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("owner update status=%d body=%s", w.Code, w.Body.String())
	}
	var updated model.Task
	decode(t, w, &updated)
	if updated.Title != "Renamed" {
		t.Fatalf("title = %q, want Renamed", updated.Title)
	}

	w = doRequest(t, env.router, http.MethodDelete, "/tasks/"+created.ID, nil, bobAuth)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delete expected 403 got=%d", w.Code)
	}
	w = doRequest(t, env.router, http.MethodDelete, "/tasks/"+created.ID, nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("owner delete status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodGet, "/tasks/"+created.ID, nil, aliceAuth)
	if w.Code != http.StatusNotFound {
		t.Fatalf("get after delete expected 404 got=%d", w.Code)
	}
}

func TestTasks_Validation(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)

	deadline := time.Now().UTC().Add(24 * time.Hour)

	w := doRequest(t, env.router, http.MethodPost, "/tasks", map[string]any{
		"title":      "Bad scores",
		"deadline":   deadline.Format(time.RFC3339),
		"importance": 11,
	}, aliceAuth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("importance 11 expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost, "/tasks", map[string]any{
		"title":      "Starts too late",
		"deadline":   deadline.Format(time.RFC3339),
		"start_date": deadline.Add(time.Hour).Format(time.RFC3339),
	}, aliceAuth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("start after deadline expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodPost, "/tasks", map[string]any{
		"deadline": deadline.Format(time.RFC3339),
	}, aliceAuth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("missing title expected 400 got=%d", w.Code)
	}
}

func TestSessions_StartSwitchStop(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)

	deadline := time.Now().UTC().Add(48 * time.Hour)
	taskA := env.seedTask(t, env.alice, "task-a", deadline)
	taskB := env.seedTask(t, env.alice, "task-b", deadline)

	w := doRequest(t, env.router, http.MethodPost, "/tasks/"+taskA.ID+"/start", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("start a status=%d body=%s", w.Code, w.Body.String())
	}
	var sess model.WorkSession
	decode(t, w, &sess)
	if sess.TaskID != taskA.ID || sess.EndTime != nil {
		t.Fatalf("session = %+v, want open on task-a", sess)
	}

	// Starting another task closes the first session implicitly.
	w = doRequest(t, env.router, http.MethodPost, "/tasks/"+taskB.ID+"/start", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("start b status=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodGet, "/users/"+env.alice.ID+"/current-task", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("current-task status=%d body=%s", w.Code, w.Body.String())
	}
	var current map[string]any
	decode(t, w, &current)
	task, ok := current["task"].(map[string]any)
	if !ok || task["id"] != taskB.ID {
		t.Fatalf("current task = %v, want task-b", current)
	}

	w = doRequest(t, env.router, http.MethodPost, "/tasks/stop", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("stop status=%d body=%s", w.Code, w.Body.String())
	}
	decode(t, w, &sess)
	if sess.EndTime == nil {
		t.Fatalf("stopped session = %+v, want closed", sess)
	}

	// Nothing left to stop.
	w = doRequest(t, env.router, http.MethodPost, "/tasks/stop", nil, aliceAuth)
	if w.Code != http.StatusNotFound {
		t.Fatalf("second stop expected 404 got=%d body=%s", w.Code, w.Body.String())
	}

	w = doRequest(t, env.router, http.MethodGet, "/users/"+env.alice.ID+"/current-task", nil, aliceAuth)
	decode(t, w, &current)
	if current["task"] != nil {
		t.Fatalf("current task = %v, want null while idle", current)
	}

	w = doRequest(t, env.router, http.MethodGet, "/users/"+env.alice.ID+"/work-history", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("work-history status=%d body=%s", w.Code, w.Body.String())
	}
	var history []map[string]any
	decode(t, w, &history)
	if len(history) != 2 {
		t.Fatalf("history entries = %d, want 2", len(history))
	}
}

func TestAssignments_DelegateAndComplete(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)
	bobAuth := env.bearerFor(t, env.bob)

	deadline := time.Now().UTC().Add(48 * time.Hour)
	task := env.seedTask(t, env.alice, "delegated", deadline)

	// Bob does not own the task and cannot delegate it.
	w := doRequest(t, env.router, http.MethodPost, "/tasks/"+task.ID+"/assignment",
		map[string]any{"user_id": env.alice.ID}, bobAuth)
	if w.Code != http.StatusForbidden {
		t.Fatalf("non-owner delegation expected 403 got=%d", w.Code)
	}

	estimate := 4.0
	w = doRequest(t, env.router, http.MethodPost, "/tasks/"+task.ID+"/assignment",
		map[string]any{"user_id": env.bob.ID, "time_estimate": estimate}, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("delegation status=%d body=%s", w.Code, w.Body.String())
	}
	var assignment model.Assignment
	decode(t, w, &assignment)
	if assignment.UserID != env.bob.ID || assignment.AssignerID != env.alice.ID {
		t.Fatalf("assignment = %+v", assignment)
	}

	// Bob was notified about the delegation.
	w = doRequest(t, env.router, http.MethodGet, "/notifications", nil, bobAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("notifications status=%d body=%s", w.Code, w.Body.String())
	}
	var notifications []model.Notification
	decode(t, w, &notifications)
	if len(notifications) != 1 || notifications[0].Type != model.NotificationTaskAssigned {
		t.Fatalf("notifications = %+v, want one task_assigned", notifications)
	}

	completePath := "/tasks/" + task.ID + "/assignment/" + env.bob.ID + "/complete"

	w = doRequest(t, env.router, http.MethodPatch, completePath,
		map[string]any{"is_completed": true}, bobAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("complete status=%d body=%s", w.Code, w.Body.String())
	}
	decode(t, w, &assignment)
	if !assignment.IsCompleted || assignment.TotalHoursSpent == nil {
		t.Fatalf("completed assignment = %+v, want frozen totals", assignment)
	}

	// Completion is one way.
	w = doRequest(t, env.router, http.MethodPatch, completePath,
		map[string]any{"is_completed": false}, bobAuth)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("unmark expected 400 got=%d body=%s", w.Code, w.Body.String())
	}

	// A bystander cannot touch someone else's assignment.
	carol := env.seedUser(t, "carol", "carol@example.com")
	w = doRequest(t, env.router, http.MethodPatch, completePath,
		map[string]any{"is_completed": true}, env.bearerFor(t, carol))
	if w.Code != http.StatusForbidden {
		t.Fatalf("bystander expected 403 got=%d", w.Code)
	}
}

func TestTasks_BoardAndArchive(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)

	future := time.Now().UTC().Add(48 * time.Hour)
	past := time.Now().UTC().Add(-time.Hour)

	onBoard := env.seedTask(t, env.alice, "on-board", future)
	env.seedTask(t, env.alice, "past-due", past)
	env.seedTask(t, env.bob, "not-mine", future)

	w := doRequest(t, env.router, http.MethodGet, "/tasks", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("board status=%d body=%s", w.Code, w.Body.String())
	}
	var board []map[string]any
	decode(t, w, &board)
	if len(board) != 1 || board[0]["id"] != onBoard.ID {
		t.Fatalf("board = %v, want only on-board", board)
	}

	w = doRequest(t, env.router, http.MethodGet, "/tasks/archive/"+env.alice.ID, nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("archive status=%d body=%s", w.Code, w.Body.String())
	}
	var archive []map[string]any
	decode(t, w, &archive)
	if len(archive) != 1 || archive[0]["id"] != "past-due-id" {
		t.Fatalf("archive = %v, want only past-due", archive)
	}
	if archive[0]["overdue"] != true {
		t.Fatalf("archived task overdue = %v, want true", archive[0]["overdue"])
	}
}

func TestTasks_EnrichmentTracksLiveHours(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)

	deadline := time.Now().UTC().Add(48 * time.Hour)
	task := env.seedTask(t, env.alice, "tracked", deadline)

	estimate := 2.0
	err := env.store.CreateAssignment(context.Background(), model.Assignment{
		TaskID: task.ID, UserID: env.alice.ID, AssignerID: env.alice.ID,
		TimeEstimate: &estimate,
	})
	if err != nil {
		t.Fatalf("CreateAssignment: %v", err)
	}

	start := time.Now().UTC().Add(-time.Hour)
	if _, err := env.store.StartSession(context.Background(), env.alice.ID, task.ID, start); err != nil {
		t.Fatalf("StartSession: %v", err)
	}
	if _, err := env.store.CloseOpenSession(context.Background(), env.alice.ID, start.Add(30*time.Minute)); err != nil {
		t.Fatalf("CloseOpenSession: %v", err)
	}

	w := doRequest(t, env.router, http.MethodGet, "/tasks/"+task.ID, nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("get status=%d body=%s", w.Code, w.Body.String())
	}

	var view struct {
		TotalHoursSpentForUser *float64 `json:"total_hours_spent_for_user"`
		TimeDifferenceForUser  *float64 `json:"time_difference_for_user"`
	}
	decode(t, w, &view)
	if view.TotalHoursSpentForUser == nil || *view.TotalHoursSpentForUser != 0.5 {
		t.Fatalf("total hours = %v, want 0.5", view.TotalHoursSpentForUser)
	}
	if view.TimeDifferenceForUser == nil || *view.TimeDifferenceForUser != 1.5 {
		t.Fatalf("time difference = %v, want 1.5", view.TimeDifferenceForUser)
	}
}

func TestNotifications_ReadAndDelete(t *testing.T) {
	env := setupTestEnv(t)
	aliceAuth := env.bearerFor(t, env.alice)
	bobAuth := env.bearerFor(t, env.bob)

	n, err := env.store.CreateNotification(context.Background(), model.Notification{
		UserID:  env.alice.ID,
		Type:    model.NotificationTaskAssigned,
		Message: "hello",
	})
	if err != nil {
		t.Fatalf("CreateNotification: %v", err)
	}

	// Empty list serializes as [], not null.
	w := doRequest(t, env.router, http.MethodGet, "/notifications", nil, bobAuth)
	if body := w.Body.String(); body != "[]" {
		t.Fatalf("empty list body = %q, want []", body)
	}

	w = doRequest(t, env.router, http.MethodPatch, "/notifications/read", nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("mark read status=%d body=%s", w.Code, w.Body.String())
	}
	w = doRequest(t, env.router, http.MethodGet, "/notifications", nil, aliceAuth)
	var notifications []model.Notification
	decode(t, w, &notifications)
	if len(notifications) != 1 || !notifications[0].Read {
		t.Fatalf("notifications = %+v, want one read", notifications)
	}

	// Bob cannot delete Alice's notification.
	w = doRequest(t, env.router, http.MethodDelete, "/notifications/"+n.ID, nil, bobAuth)
	if w.Code != http.StatusNotFound {
		t.Fatalf("cross-user delete expected 404 got=%d", w.Code)
	}
	w = doRequest(t, env.router, http.MethodDelete, "/notifications/"+n.ID, nil, aliceAuth)
	if w.Code != http.StatusOK {
		t.Fatalf("delete status=%d body=%s", w.Code, w.Body.String())
	}
}
