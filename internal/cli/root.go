// Package cli is the operator command line for the sleep service. It reads
// the same storage the server writes.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

// App holds what the commands need. Storage is opened through Open the
// first time a command needs it, unless the repositories are already set.
type App struct {
	Accounts storage.AccountRepository
	Records  storage.SleepRecordRepository
	Clock    sleepcalc.Clock
	Open     func(ctx context.Context) (*storage.Repositories, error)

	repos *storage.Repositories
}

func (app *App) connect(ctx context.Context) error {
	if app.Accounts != nil && app.Records != nil {
		return nil
	}
	if app.Open == nil {
		return errors.New("storage is not configured")
	}
	repos, err := app.Open(ctx)
	if err != nil {
		return fmt.Errorf("opening storage: %w", err)
	}
	app.repos = repos
	app.Accounts = repos.Accounts
	app.Records = repos.Records
	return nil
}

// Close releases storage opened by a command.
func (app *App) Close() error {
	if app.repos == nil {
		return nil
	}
	err := app.repos.Close()
	app.repos = nil
	return err
}

// NewRootCmd creates the top-level "sleeplog" command.
func NewRootCmd(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "sleeplog",
		Short:         "Sleep log calculator and data tools",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.AddCommand(
		newCalcCmd(),
		newExportCmd(app),
		newStatsCmd(app),
	)

	return root
}
