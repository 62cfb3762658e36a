package auth

import (
	"context"

	"github.com/Ram4lh0/Sleep-App/internal"
)

// Identity is what a validated bearer token resolves to.
type Identity struct {
	User      *internal.User `json:"user"`
	SessionID string         `json:"session_id"`
}

type Provider interface {
	ValidateTokenLocal(ctx context.Context, token string) (*Identity, error)
	ValidateTokenRemote(ctx context.Context, token string) (*Identity, error)
}
