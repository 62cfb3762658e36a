package api

import (
	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/auth"
	"github.com/Ram4lh0/Sleep-App/internal/notify"
	"github.com/Ram4lh0/Sleep-App/internal/service"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

// App is what the handlers need from the running service.
type App interface {
	Logger() internal.Logger
	Sleep() *service.SleepService
	// Accounts is nil when sign-in is delegated to a remote auth service.
	Accounts() *auth.AccountService
	GoalRepo() storage.GoalRepository
	Feed() *notify.Hub
	Clock() sleepcalc.Clock
}

// Services is the App assembled by cmd/server and by tests.
type Services struct {
	Log         internal.Logger
	SleepSvc    *service.SleepService
	AccountSvc  *auth.AccountService
	Goals       storage.GoalRepository
	Hub         *notify.Hub
	SystemClock sleepcalc.Clock
}

func (s *Services) Logger() internal.Logger          { return s.Log }
func (s *Services) Sleep() *service.SleepService     { return s.SleepSvc }
func (s *Services) Accounts() *auth.AccountService   { return s.AccountSvc }
func (s *Services) GoalRepo() storage.GoalRepository { return s.Goals }
func (s *Services) Feed() *notify.Hub                { return s.Hub }
func (s *Services) Clock() sleepcalc.Clock           { return s.SystemClock }

var _ App = (*Services)(nil)
