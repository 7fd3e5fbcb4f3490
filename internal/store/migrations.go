package store

// migration holds a single schema migration with its target version and SQL.
type migration struct {
	version int
	sql     string
}

// migrations is the ordered list of schema migrations.
// Each migration's version must be sequential starting from 1.
var migrations = []migration{
	{
		version: 1,
		sql: `
CREATE TABLE IF NOT EXISTS schema_version (
	version INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	name          TEXT NOT NULL,
	email         TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	supervisor_id TEXT REFERENCES users(id) ON DELETE SET NULL,
	created_at    DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id            TEXT PRIMARY KEY,
	title         TEXT NOT NULL,
	description   TEXT NOT NULL DEFAULT '',
	deadline      DATETIME NOT NULL,
	start_date    DATETIME NOT NULL,
	importance    INTEGER NOT NULL DEFAULT 5 CHECK(importance BETWEEN 1 AND 10),
	urgency       INTEGER NOT NULL DEFAULT 5 CHECK(urgency BETWEEN 1 AND 10),
	status        TEXT NOT NULL DEFAULT 'pending' CHECK(status IN ('pending', 'completed')),
	owner_id      TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	project       TEXT NOT NULL DEFAULT '',
	time_estimate REAL,
	created_at    DATETIME NOT NULL,
	updated_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS task_assignments (
	task_id           TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id           TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	assigner_id       TEXT NOT NULL,
	importance        INTEGER CHECK(importance BETWEEN 1 AND 10),
	urgency           INTEGER CHECK(urgency BETWEEN 1 AND 10),
	start_date        DATETIME,
	time_estimate     REAL,
	is_completed      INTEGER NOT NULL DEFAULT 0 CHECK(is_completed IN (0, 1)),
	total_hours_spent REAL,
	time_difference   REAL,
	created_at        DATETIME NOT NULL,
	PRIMARY KEY (task_id, user_id)
);

CREATE TABLE IF NOT EXISTS work_sessions (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	start_time DATETIME NOT NULL,
	end_time   DATETIME
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	type       TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	metadata   TEXT NOT NULL DEFAULT '{}',
	dedup_key  TEXT NOT NULL DEFAULT '',
	read       INTEGER NOT NULL DEFAULT 0 CHECK(read IN (0, 1)),
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_tasks_owner_id ON tasks(owner_id);
CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks(status);
CREATE INDEX IF NOT EXISTS idx_tasks_deadline ON tasks(deadline);
CREATE INDEX IF NOT EXISTS idx_assignments_user_id ON task_assignments(user_id);
CREATE INDEX IF NOT EXISTS idx_sessions_task_user ON work_sessions(task_id, user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_user_id ON notifications(user_id);
CREATE INDEX IF NOT EXISTS idx_notifications_read ON notifications(read);

INSERT INTO schema_version (version) VALUES (1);
`,
	},
	{
		version: 2,
		sql: `
-- At most one open session per user, enforced at the storage level so a
-- check-then-act race between two starts cannot leave two rows open.
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_open_user
	ON work_sessions(user_id) WHERE end_time IS NULL;

-- Repeat deadline notifications for the same (task, assignee, deadline)
-- collapse onto one row.
CREATE UNIQUE INDEX IF NOT EXISTS idx_notifications_dedup
	ON notifications(dedup_key) WHERE dedup_key != '';

INSERT INTO schema_version (version) VALUES (2);
`,
	},
}
