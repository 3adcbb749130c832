package approval

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/glebarez/go-sqlite"
	"github.com/google/uuid"

	"github.com/postgatehq/postgate/db"
)

// SQLiteRegistry persists pending tasks so an unanswered approval survives
// a restart.
type SQLiteRegistry struct {
	dsn string

	mu sync.Mutex
	db *sql.DB
}

func NewSQLiteRegistry(dsn string) (*SQLiteRegistry, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("missing sqlite dsn")
	}
	r := &SQLiteRegistry{dsn: dsn}
	if err := r.open(); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *SQLiteRegistry) Create(ctx context.Context, task PendingTask) (string, error) {
	if r == nil {
		return "", fmt.Errorf("nil registry")
	}
	if err := r.ensureOpen(); err != nil {
		return "", err
	}
	if strings.TrimSpace(task.ContextID) == "" {
		return "", fmt.Errorf("missing context id")
	}
	if strings.TrimSpace(task.ID) == "" {
		task.ID = uuid.NewString()
	}
	if task.CreatedAt.IsZero() {
		task.CreatedAt = time.Now().UTC()
	}
	task.State = StateAwaitingDecision

	if _, _, err := r.CancelExisting(ctx, task.ContextID, task.Tags); err != nil {
		return "", err
	}

	payloadJSON, _ := json.Marshal(task.Payload)
	optionsJSON, _ := json.Marshal(task.Options)
	tagsJSON, _ := json.Marshal(task.Tags)

	_, err := r.db.ExecContext(ctx, `
INSERT INTO pending_tasks (
  id, context_id, name, actor_id,
  payload_json, options_json, tags_json,
  state, created_at_unix
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
`, task.ID, strings.TrimSpace(task.ContextID), strings.TrimSpace(task.Name), strings.TrimSpace(task.ActorID),
		string(payloadJSON), string(optionsJSON), string(tagsJSON),
		string(task.State), task.CreatedAt.Unix(),
	)
	if err != nil {
		return "", err
	}
	return task.ID, nil
}

func (r *SQLiteRegistry) Get(ctx context.Context, contextID string, tags []string) (PendingTask, bool, error) {
	tasks, err := r.awaitingForContext(ctx, contextID)
	if err != nil {
		return PendingTask{}, false, err
	}
	for _, t := range tasks {
		if t.HasTags(tags) {
			return t, true, nil
		}
	}
	return PendingTask{}, false, nil
}

func (r *SQLiteRegistry) GetByID(ctx context.Context, id string) (PendingTask, bool, error) {
	if r == nil {
		return PendingTask{}, false, fmt.Errorf("nil registry")
	}
	if err := r.ensureOpen(); err != nil {
		return PendingTask{}, false, err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return PendingTask{}, false, nil
	}
	row := r.db.QueryRowContext(ctx, `
SELECT id, context_id, name, actor_id, payload_json, options_json, tags_json, state, created_at_unix
FROM pending_tasks
WHERE id = ?
`, id)
	t, err := scanTask(row)
	if err == sql.ErrNoRows {
		return PendingTask{}, false, nil
	}
	if err != nil {
		return PendingTask{}, false, err
	}
	return t, true, nil
}

func (r *SQLiteRegistry) Delete(ctx context.Context, id string) error {
	if r == nil {
		return fmt.Errorf("nil registry")
	}
	if err := r.ensureOpen(); err != nil {
		return err
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return nil
	}
	_, err := r.db.ExecContext(ctx, `DELETE FROM pending_tasks WHERE id = ?`, id)
	return err
}

func (r *SQLiteRegistry) CancelExisting(ctx context.Context, contextID string, tags []string) (PendingTask, bool, error) {
	tasks, err := r.awaitingForContext(ctx, contextID)
	if err != nil {
		return PendingTask{}, false, err
	}
	for _, t := range tasks {
		if !t.HasTags(tags) {
			continue
		}
		if _, err := r.db.ExecContext(ctx, `DELETE FROM pending_tasks WHERE id = ?`, t.ID); err != nil {
			return PendingTask{}, false, err
		}
		t.State = StateCancelled
		return t, true, nil
	}
	return PendingTask{}, false, nil
}

// awaitingForContext loads every awaiting task for a context; tag matching
// happens in Go because tags live in a JSON column.
func (r *SQLiteRegistry) awaitingForContext(ctx context.Context, contextID string) ([]PendingTask, error) {
	if r == nil {
		return nil, fmt.Errorf("nil registry")
	}
	if err := r.ensureOpen(); err != nil {
		return nil, err
	}
	rows, err := r.db.QueryContext(ctx, `
SELECT id, context_id, name, actor_id, payload_json, options_json, tags_json, state, created_at_unix
FROM pending_tasks
WHERE context_id = ? AND state = ?
ORDER BY created_at_unix DESC
`, strings.TrimSpace(contextID), string(StateAwaitingDecision))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []PendingTask
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanTask(row rowScanner) (PendingTask, error) {
	var (
		t             PendingTask
		payloadJSON   string
		optionsJSON   string
		tagsJSON      string
		state         string
		createdAtUnix int64
	)
	err := row.Scan(&t.ID, &t.ContextID, &t.Name, &t.ActorID, &payloadJSON, &optionsJSON, &tagsJSON, &state, &createdAtUnix)
	if err != nil {
		return PendingTask{}, err
	}
	_ = json.Unmarshal([]byte(payloadJSON), &t.Payload)
	_ = json.Unmarshal([]byte(optionsJSON), &t.Options)
	_ = json.Unmarshal([]byte(tagsJSON), &t.Tags)
	t.State = State(state)
	t.CreatedAt = time.Unix(createdAtUnix, 0).UTC()
	return t, nil
}

func (r *SQLiteRegistry) open() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.db != nil {
		return nil
	}
	sqlDB, err := sql.Open("sqlite", r.dsn)
	if err != nil {
		return err
	}
	if err := db.ApplySQLitePragmas(sqlDB, db.DefaultSQLiteConfig()); err != nil {
		_ = sqlDB.Close()
		return err
	}
	r.db = sqlDB
	return r.migrate()
}

func (r *SQLiteRegistry) ensureOpen() error {
	if r.db != nil {
		return nil
	}
	return r.open()
}

func (r *SQLiteRegistry) migrate() error {
	if r.db == nil {
		return fmt.Errorf("sqlite db is not open")
	}
	_, err := r.db.Exec(`
CREATE TABLE IF NOT EXISTS pending_tasks (
  id TEXT PRIMARY KEY,
  context_id TEXT NOT NULL,
  name TEXT,
  actor_id TEXT,
  payload_json TEXT,
  options_json TEXT,
  tags_json TEXT,
  state TEXT NOT NULL,
  created_at_unix INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_pending_tasks_context_state ON pending_tasks(context_id, state);
`)
	return err
}
