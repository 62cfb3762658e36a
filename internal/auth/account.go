package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/observability"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

var validate = validator.New()

type SignUpRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6,max=72"`
	Name     string `json:"name,omitempty" validate:"max=80"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// AccountService signs users up and in, and tracks their sessions.
type AccountService struct {
	repo      storage.AccountRepository
	publisher notify.Publisher
	clock     sleepcalc.Clock
	tokens    TokenConfig
	cost      int
	logger    internal.Logger
}

func NewAccountService(repo storage.AccountRepository, publisher notify.Publisher, clock sleepcalc.Clock, tokens TokenConfig, logger internal.Logger) *AccountService {
	return &AccountService{
		repo:      repo,
		publisher: publisher,
		clock:     clock,
		tokens:    tokens,
		cost:      bcrypt.DefaultCost,
		logger:    logger,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func (s *AccountService) SignUp(ctx context.Context, req *SignUpRequest) (*internal.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, err
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.cost)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}
	user := &internal.User{
		ID:           uuid.NewString(),
		Email:        req.Email,
		Name:         strings.TrimSpace(req.Name),
		PasswordHash: string(hash),
		CreatedAt:    s.clock.Now(),
	}
	err = s.repo.CreateUser(ctx, user)
	observability.AuthAttempt("signup", err)
	if err != nil {
		return nil, err
	}
	s.logger.Infof("account created user_id=%s", user.ID)
	return user, nil
}

// SignIn checks the credentials and opens a session. Unknown email and
// wrong password both yield internal.ErrInvalidCredentials.
func (s *AccountService) SignIn(ctx context.Context, req *SignInRequest) (*internal.Session, *internal.User, error) {
	req.Email = normalizeEmail(req.Email)
	if err := validate.Struct(req); err != nil {
		return nil, nil, err
	}
	sess, user, err := s.signIn(ctx, req)
	observability.AuthAttempt("signin", err)
	return sess, user, err
}

func (s *AccountService) signIn(ctx context.Context, req *SignInRequest) (*internal.Session, *internal.User, error) {
	user, err := s.repo.GetUserByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, nil, internal.ErrInvalidCredentials
		}
		return nil, nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, nil, internal.ErrInvalidCredentials
	}

	now := s.clock.Now()
	sess := &internal.Session{
		ID:        uuid.NewString(),
		UserID:    user.ID,
		ExpiresAt: now.Add(s.tokens.TTL),
		CreatedAt: now,
	}
	token, err := issueToken(s.tokens, user.ID, sess.ID, now, sess.ExpiresAt)
	if err != nil {
		return nil, nil, fmt.Errorf("signing token: %w", err)
	}
	if err := s.repo.SaveSession(ctx, sess); err != nil {
		return nil, nil, err
	}
	sess.Token = token
	s.notify(ctx, notify.Event{Type: notify.EventSignedIn, UserID: user.ID, SessionID: sess.ID, OccurredAt: now})
	return sess, user, nil
}

// SignOut ends a session; its token stops validating immediately.
func (s *AccountService) SignOut(ctx context.Context, userID, sessionID string) error {
	err := s.repo.DeleteSession(ctx, sessionID)
	observability.AuthAttempt("signout", err)
	if err != nil {
		return err
	}
	s.notify(ctx, notify.Event{Type: notify.EventSignedOut, UserID: userID, SessionID: sessionID, OccurredAt: s.clock.Now()})
	return nil
}

// CurrentSession resolves a bearer token to its live session and user.
func (s *AccountService) CurrentSession(ctx context.Context, token string) (*internal.Session, *internal.User, error) {
	now := s.clock.Now()
	userID, sessionID, err := parseToken(s.tokens, token, now)
	if err != nil {
		return nil, nil, err
	}
	sess, err := s.repo.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, nil, internal.ErrUnauthorized
		}
		return nil, nil, err
	}
	if sess.UserID != userID || sess.Expired(now) {
		return nil, nil, internal.ErrUnauthorized
	}
	user, err := s.repo.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, internal.ErrNotFound) {
			return nil, nil, internal.ErrUnauthorized
		}
		return nil, nil, err
	}
	return sess, user, nil
}

func (s *AccountService) notify(ctx context.Context, ev notify.Event) {
	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, ev); err != nil {
		s.logger.Warnf("session event %s for user_id=%s not published: %v", ev.Type, ev.UserID, err)
	}
}
