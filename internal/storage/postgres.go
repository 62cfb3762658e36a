package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/storage/schema"
)

const pgUniqueViolation = "23505"

type PostgresStorage struct {
	pool   *pgxpool.Pool
	logger internal.Logger
}

func NewPostgresStorage(ctx context.Context, dsn string, logger internal.Logger) (*PostgresStorage, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		logger.Errorf("failed to connect to postgres: %v", err)
		return nil, err
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		logger.Errorf("failed to ping postgres: %v", err)
		return nil, err
	}
	if _, err := pool.Exec(ctx, schema.Postgres); err != nil {
		pool.Close()
		return nil, fmt.Errorf("storage: applying postgres schema: %w", err)
	}
	return &PostgresStorage{pool: pool, logger: logger}, nil
}

func (p *PostgresStorage) Close() error {
	p.pool.Close()
	return nil
}

func mapPgError(err error, what string) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("storage: %s: %w", what, internal.ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return fmt.Errorf("storage: %s: %w", what, internal.ErrConflict)
	}
	return fmt.Errorf("storage: %s: %w", what, err)
}

// --- SleepRecordRepository ---

func (p *PostgresStorage) InsertRecord(ctx context.Context, rec *internal.SleepRecord) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sleep_records (id, user_id, date, bed_time, wake_time, hours, created_at) VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.UserID, rec.Date, rec.BedTime, rec.WakeTime, rec.Hours, rec.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert sleep record: %v", err)
		return mapPgError(err, "insert sleep record")
	}
	return nil
}

func (p *PostgresStorage) ListRecords(ctx context.Context, userID string) ([]internal.SleepRecord, error) {
	rows, err := p.pool.Query(ctx, `SELECT id, user_id, date, bed_time, wake_time, hours, created_at FROM sleep_records WHERE user_id = $1 ORDER BY created_at DESC, id DESC`, userID)
	if err != nil {
		p.logger.Errorf("failed to query sleep records: %v", err)
		return nil, err
	}
	defer rows.Close()

	recs := []internal.SleepRecord{}
	for rows.Next() {
		var r internal.SleepRecord
		if err := rows.Scan(&r.ID, &r.UserID, &r.Date, &r.BedTime, &r.WakeTime, &r.Hours, &r.CreatedAt); err != nil {
			p.logger.Errorf("failed to scan sleep record: %v", err)
			return nil, err
		}
		recs = append(recs, r)
	}
	return recs, rows.Err()
}

func (p *PostgresStorage) DeleteRecord(ctx context.Context, userID, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sleep_records WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		p.logger.Errorf("failed to delete sleep record: %v", err)
		return mapPgError(err, "delete sleep record")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: record %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

// --- AccountRepository ---

func (p *PostgresStorage) CreateUser(ctx context.Context, user *internal.User) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO users (id, email, name, password_hash, created_at) VALUES ($1, $2, $3, $4, $5)`,
		user.ID, user.Email, user.Name, user.PasswordHash, user.CreatedAt)
	if err != nil {
		return mapPgError(err, "create user")
	}
	return nil
}

func (p *PostgresStorage) getUser(ctx context.Context, where string, arg string) (*internal.User, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, email, name, password_hash, created_at FROM users WHERE `+where, arg)
	var u internal.User
	if err := row.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt); err != nil {
		return nil, mapPgError(err, "get user")
	}
	return &u, nil
}

func (p *PostgresStorage) GetUserByEmail(ctx context.Context, email string) (*internal.User, error) {
	return p.getUser(ctx, `lower(email) = lower($1)`, email)
}

func (p *PostgresStorage) GetUserByID(ctx context.Context, id string) (*internal.User, error) {
	return p.getUser(ctx, `id = $1`, id)
}

func (p *PostgresStorage) SaveSession(ctx context.Context, s *internal.Session) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO sessions (id, user_id, expires_at, created_at) VALUES ($1, $2, $3, $4)
		ON CONFLICT (id) DO UPDATE SET expires_at = EXCLUDED.expires_at`,
		s.ID, s.UserID, s.ExpiresAt, s.CreatedAt)
	if err != nil {
		return mapPgError(err, "save session")
	}
	return nil
}

func (p *PostgresStorage) GetSession(ctx context.Context, id string) (*internal.Session, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, expires_at, created_at FROM sessions WHERE id = $1`, id)
	var s internal.Session
	if err := row.Scan(&s.ID, &s.UserID, &s.ExpiresAt, &s.CreatedAt); err != nil {
		return nil, mapPgError(err, "get session")
	}
	return &s, nil
}

func (p *PostgresStorage) DeleteSession(ctx context.Context, id string) error {
	tag, err := p.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	if err != nil {
		return mapPgError(err, "delete session")
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("storage: session %s: %w", id, internal.ErrNotFound)
	}
	return nil
}

// --- GoalRepository ---

func (p *PostgresStorage) SetGoal(ctx context.Context, goal *internal.Goal) error {
	_, err := p.pool.Exec(ctx, `INSERT INTO goals (id, user_id, type, value, created_at) VALUES ($1, $2, $3, $4, $5)`,
		goal.ID, goal.UserID, goal.Type, goal.Value, goal.CreatedAt)
	if err != nil {
		p.logger.Errorf("failed to insert goal: %v", err)
		return mapPgError(err, "set goal")
	}
	return nil
}

func (p *PostgresStorage) GetGoal(ctx context.Context, userID string) (*internal.Goal, error) {
	row := p.pool.QueryRow(ctx, `SELECT id, user_id, type, value, created_at FROM goals WHERE user_id = $1 ORDER BY created_at DESC, id DESC LIMIT 1`, userID)
	var g internal.Goal
	if err := row.Scan(&g.ID, &g.UserID, &g.Type, &g.Value, &g.CreatedAt); err != nil {
		return nil, mapPgError(err, "get goal")
	}
	return &g, nil
}

// --- Compile-time assertions ---
var _ SleepRecordRepository = (*PostgresStorage)(nil)
var _ AccountRepository = (*PostgresStorage)(nil)
var _ GoalRepository = (*PostgresStorage)(nil)
