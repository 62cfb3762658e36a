package storage

import (
	"context"

	"github.com/Ram4lh0/Sleep-App/internal"
)

// SleepRecordRepository stores sleep records scoped by owning user.
type SleepRecordRepository interface {
	InsertRecord(ctx context.Context, rec *internal.SleepRecord) error
	// ListRecords returns the user's records, newest CreatedAt first.
	ListRecords(ctx context.Context, userID string) ([]internal.SleepRecord, error)
	// DeleteRecord removes a record owned by userID, or returns
	// internal.ErrNotFound.
	DeleteRecord(ctx context.Context, userID, id string) error
}

type AccountRepository interface {
	CreateUser(ctx context.Context, user *internal.User) error
	GetUserByEmail(ctx context.Context, email string) (*internal.User, error)
	GetUserByID(ctx context.Context, id string) (*internal.User, error)
	SaveSession(ctx context.Context, session *internal.Session) error
	GetSession(ctx context.Context, id string) (*internal.Session, error)
	DeleteSession(ctx context.Context, id string) error
}

type GoalRepository interface {
	SetGoal(ctx context.Context, goal *internal.Goal) error
	GetGoal(ctx context.Context, userID string) (*internal.Goal, error)
}
