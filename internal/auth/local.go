package auth

import (
	"context"
	"errors"

	"github.com/Ram4lh0/Sleep-App/internal"
)

// LocalAuthProvider validates tokens against this service's own accounts.
type LocalAuthProvider struct {
	accounts *AccountService
	logger   internal.Logger
}

func (a *LocalAuthProvider) ValidateTokenLocal(ctx context.Context, token string) (*Identity, error) {
	sess, user, err := a.accounts.CurrentSession(ctx, token)
	if err != nil {
		a.logger.Debugf("token rejected: %v", err)
		return nil, err
	}
	return &Identity{User: user, SessionID: sess.ID}, nil
}

func (a *LocalAuthProvider) ValidateTokenRemote(ctx context.Context, token string) (*Identity, error) {
	a.logger.Warnf("ValidateTokenRemote not implemented in LocalAuthProvider")
	return nil, errors.New("not implemented in LocalAuthProvider")
}

func NewLocalAuthProvider(accounts *AccountService, logger internal.Logger) *LocalAuthProvider {
	return &LocalAuthProvider{accounts: accounts, logger: logger}
}
