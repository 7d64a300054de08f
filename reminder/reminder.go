// Package reminder implements the separately persisted reminder surface:
// a SQLite-backed store and a scheduler that fires due reminders onto the
// event bus.
package reminder

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/minderhq/minder/task"
)

// Reminder links a notification time to a task.
type Reminder struct {
	ID        string     `json:"id"`
	TaskID    string     `json:"taskId"`
	Message   string     `json:"message"`
	At        time.Time  `json:"at"`
	Recurring string     `json:"recurring,omitempty"` // standard cron expression
	Delivered bool       `json:"delivered"`
	CreatedAt time.Time  `json:"createdAt"`
	LastFired *time.Time `json:"lastFired,omitempty"`
}

const schema = `
CREATE TABLE IF NOT EXISTS reminders (
	id         TEXT PRIMARY KEY,
	task_id    TEXT NOT NULL,
	message    TEXT NOT NULL DEFAULT '',
	at         DATETIME NOT NULL,
	recurring  TEXT NOT NULL DEFAULT '',
	delivered  INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL,
	last_fired DATETIME
);
`

// Store persists reminders in a SQLite database.
type Store struct {
	db *sql.DB
}

// NewStore opens (or creates) a SQLite database at dbPath and ensures the
// reminders table exists. The caller is responsible for calling Close.
func NewStore(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

// Create persists a new reminder and sets its ID and CreatedAt.
func (s *Store) Create(r *Reminder) (string, error) {
	r.ID = uuid.NewString()
	r.CreatedAt = time.Now().UTC()

	_, err := s.db.Exec(`
		INSERT INTO reminders (id, task_id, message, at, recurring, delivered, created_at, last_fired)
		VALUES (?,?,?,?,?,?,?,?)`,
		r.ID, r.TaskID, r.Message, r.At, r.Recurring, boolToInt(r.Delivered), r.CreatedAt, nullTime(r.LastFired),
	)
	if err != nil {
		return "", fmt.Errorf("insert reminder: %w", err)
	}
	return r.ID, nil
}

// Get retrieves a reminder by ID.
func (s *Store) Get(id string) (*Reminder, error) {
	row := s.db.QueryRow(`SELECT * FROM reminders WHERE id = ?`, id)
	r, err := scanReminder(row)
	if err == sql.ErrNoRows {
		return nil, &task.NotFoundError{Entity: "reminder", ID: id}
	}
	return r, err
}

// List returns all reminders, optionally restricted to one task, ordered by
// fire time.
func (s *Store) List(taskID string) ([]*Reminder, error) {
	q := `SELECT * FROM reminders`
	args := []any{}
	if taskID != "" {
		q += ` WHERE task_id = ?`
		args = append(args, taskID)
	}
	q += ` ORDER BY at ASC`

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("list reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// Due returns undelivered reminders whose fire time is at or before now.
func (s *Store) Due(now time.Time) ([]*Reminder, error) {
	rows, err := s.db.Query(`SELECT * FROM reminders WHERE delivered = 0 AND at <= ? ORDER BY at ASC`, now)
	if err != nil {
		return nil, fmt.Errorf("due reminders: %w", err)
	}
	defer rows.Close()

	var reminders []*Reminder
	for rows.Next() {
		r, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, r)
	}
	return reminders, rows.Err()
}

// MarkDelivered records that a reminder fired. Recurring reminders are
// re-armed at nextAt instead of being marked delivered.
func (s *Store) MarkDelivered(id string, firedAt time.Time, nextAt *time.Time) error {
	var res sql.Result
	var err error
	if nextAt != nil {
		res, err = s.db.Exec(`UPDATE reminders SET at = ?, last_fired = ? WHERE id = ?`, *nextAt, firedAt, id)
	} else {
		res, err = s.db.Exec(`UPDATE reminders SET delivered = 1, last_fired = ? WHERE id = ?`, firedAt, id)
	}
	if err != nil {
		return fmt.Errorf("mark delivered: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &task.NotFoundError{Entity: "reminder", ID: id}
	}
	return nil
}

// Delete removes a reminder by ID.
func (s *Store) Delete(id string) error {
	res, err := s.db.Exec(`DELETE FROM reminders WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete reminder: %w", err)
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return &task.NotFoundError{Entity: "reminder", ID: id}
	}
	return nil
}

// scanner abstracts sql.Row and sql.Rows for scanReminder.
type scanner interface {
	Scan(dest ...any) error
}

func scanReminder(s scanner) (*Reminder, error) {
	var r Reminder
	var delivered int
	var lastFired sql.NullTime

	err := s.Scan(&r.ID, &r.TaskID, &r.Message, &r.At, &r.Recurring, &delivered, &r.CreatedAt, &lastFired)
	if err != nil {
		return nil, err
	}
	r.Delivered = delivered != 0
	if lastFired.Valid {
		r.LastFired = &lastFired.Time
	}
	return &r, nil
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
