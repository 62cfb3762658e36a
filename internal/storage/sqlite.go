package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/storage/schema"
)

// sqliteTimeLayout keeps lexical order equal to chronological order.
const sqliteTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// SQLiteStorage implements the repositories on a single SQLite database.
type SQLiteStorage struct {
	db     *sql.DB
	logger internal.Logger
}

// NewSQLiteStorage opens (or creates) the database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func NewSQLiteStorage(path string, logger internal.Logger) (*SQLiteStorage, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("creating db directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}
	if path == ":memory:" {
		// each pooled connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}

	if _, err := db.Exec("PRAGMA journal_mode = WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("setting WAL mode: %w", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}
	if _, err := db.Exec(schema.SQLite); err != nil {
		db.Close()
		return nil, fmt.Errorf("applying sqlite schema: %w", err)
	}
	return &SQLiteStorage{db: db, logger: logger}, nil
}

func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

func formatTime(t time.Time) string {
	return t.UTC().Format(sqliteTimeLayout)
}

func parseTime(v string) (time.Time, error) {
	return time.Parse(sqliteTimeLayout, v)
}

func mapSQLiteError(err error, what string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("storage: %s: %w", what, internal.ErrNotFound)
	}
	if strings.Contains(err.Error(), "UNIQUE constraint failed") {
		return fmt.Errorf("storage: %s: %w", what, internal.ErrConflict)
	}
	return fmt.Errorf("storage: %s: %w", what, err)
}

// --- SleepRecordRepository ---

func (s *SQLiteStorage) InsertRecord(ctx context.Context, rec *internal.SleepRecord) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sleep_records (id, user_id, date, bed_time, wake_time, hours, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Date, rec.BedTime, rec.WakeTime, rec.Hours, formatTime(rec.CreatedAt))
	if err != nil {
		s.logger.Errorf("failed to insert sleep record: %v", err)
		return mapSQLiteError(err, "insert sleep record")
	}
	return nil
}

func (s *SQLiteStorage) ListRecords(ctx context.Context, userID string) ([]internal.SleepRecord, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, user_id, date, bed_time, wake_time, hours, created_at
		FROM sleep_records WHERE user_id = ? ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("listing sleep records: %w", err)
	}
	defer rows.Close()

	recs := []internal.SleepRecord{}
	for rows.Next() {
		var r internal.SleepRecord
		var created string
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &r.BedTime, &r.WakeTime, &r.Hours, &created); err != nil {
			return nil, fmt.Errorf("scanning sleep record: %w", err)
		}
		if r.CreatedAt, err = parseTime(created); err != nil {
			return nil, fmt.Errorf("parsing created_at: %w", err)
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (s *SQLiteStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sleep_records WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return mapSQLiteError(err, "delete sleep record")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: record %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

// --- AccountRepository ---

func (s *SQLiteStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO users (id, email, name, password_hash, created_at) VALUES (?, ?, ?, ?, ?)`,
		user.ID, user.Email, user.Name, user.PasswordHash, formatTime(user.CreatedAt))
	if err != nil {
		return mapSQLiteError(err, "create user")
	}
	return nil
}

func (s *SQLiteStorage) scanUser(row *sql.Row) (*internal.User, error) {
	var u internal.User
	var created string
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &created); err != nil {
		return nil, mapSQLiteError(err, "get user")
	}
	t, err := parseTime(created)
	if err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	u.CreatedAt = t
	return &u, nil
}

func (s *SQLiteStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE lower(email) = lower(?)`, email))
}

func (s *SQLiteStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return s.scanUser(s.db.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at FROM users WHERE id = ?`, id))
}

func (s *SQLiteStorage) SaveSession(ctx context.Context, sess *internal.Session) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET expires_at = excluded.expires_at`,
		sess.ID, sess.UserID, formatTime(sess.ExpiresAt), formatTime(sess.CreatedAt))
	if err != nil {
		return mapSQLiteError(err, "save session")
	}
	return nil
}

func (s *SQLiteStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	var sess internal.Session
	var expires, created string
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &expires, &created)
	if err != nil {
		return nil, mapSQLiteError(err, "get session")
	}
	if sess.ExpiresAt, err = parseTime(expires); err != nil {
		return nil, fmt.Errorf("parsing expires_at: %w", err)
	}
	if sess.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &sess, nil
}

func (s *SQLiteStorage) DeleteSession(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	if err != nil {
		return mapSQLiteError(err, "delete session")
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("storage: session %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

// --- GoalRepository ---

func (s *SQLiteStorage) SetGoal(ctx context.Context, goal *internal.Goal) error {
	_, err := s.db.ExecContext(ctx, `INSERT INTO goals (id, user_id, type, value, created_at) VALUES (?, ?, ?, ?, ?)`,
		goal.ID, goal.UserID, goal.Type, goal.Value, formatTime(goal.CreatedAt))
	if err != nil {
		return mapSQLiteError(err, "set goal")
	}
	return nil
}

func (s *SQLiteStorage) GetGoal(ctx context.Context, userID string) (*internal.Goal, error) {
	var g internal.Goal
	var created string
	err := s.db.QueryRowContext(ctx, `SELECT id, user_id, type, value, created_at FROM goals
		WHERE user_id = ? ORDER BY created_at DESC, id DESC LIMIT 1`, userID).
		Scan(&g.ID, &g.UserID, &g.Type, &g.Value, &created)
	if err != nil {
		return nil, mapSQLiteError(err, "get goal")
	}
	if g.CreatedAt, err = parseTime(created); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	return &g, nil
}

// --- Compile-time assertions ---
var _ SleepRecordRepository = (*SQLiteStorage)(nil)
var _ AccountRepository = (*SQLiteStorage)(nil)
var _ GoalRepository = (*SQLiteStorage)(nil)
