package storage

import (
	"context"
	"fmt"
	"io"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/config"
)

// Repositories bundles the repositories of one backend.
type Repositories struct {
	Records  SleepRecordRepository
	Accounts AccountRepository
	Goals    GoalRepository
	closer   io.Closer
}

func (r *Repositories) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

type backend interface {
	SleepRecordRepository
	AccountRepository
	GoalRepository
	io.Closer
}

func bundle(b backend) *Repositories {
	return &Repositories{Records: b, Accounts: b, Goals: b, closer: b}
}

// Open builds the repositories for the backend selected in cfg.
func Open(ctx context.Context, cfg *config.Config, logger internal.Logger) (*Repositories, error) {
	switch cfg.DBType {
	case "file":
		records, users, sessions, goals := cfg.FilePaths()
		return NewFileRepositories(records, users, sessions, goals, logger)
	case "postgres":
		return NewPostgresRepositories(ctx, cfg.DBDSN, logger)
	case "sqlite":
		return NewSQLiteRepositories(cfg.SQLitePath, logger)
	default:
		return nil, fmt.Errorf("storage: unknown backend %q", cfg.DBType)
	}
}

func NewFileRepositories(recordsFile, usersFile, sessionsFile, goalsFile string, logger internal.Logger) (*Repositories, error) {
	s, err := NewFileStorage(recordsFile, usersFile, sessionsFile, goalsFile, logger)
	if err != nil {
		return nil, err
	}
	return bundle(s), nil
}

func NewPostgresRepositories(ctx context.Context, dsn string, logger internal.Logger) (*Repositories, error) {
	s, err := NewPostgresStorage(ctx, dsn, logger)
	if err != nil {
		return nil, err
	}
	return bundle(s), nil
}

func NewSQLiteRepositories(path string, logger internal.Logger) (*Repositories, error) {
	s, err := NewSQLiteStorage(path, logger)
	if err != nil {
		return nil, err
	}
	return bundle(s), nil
}
