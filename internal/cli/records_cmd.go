package cli

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/service"
)

func (app *App) recordsFor(ctx context.Context, email string) ([]internal.SleepRecord, error) {
	if err := app.connect(ctx); err != nil {
		return nil, err
	}
	user, err := app.Accounts.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, fmt.Errorf("looking up %s: %w", email, err)
	}
	return app.Records.ListRecords(ctx, user.ID)
}

func newExportCmd(app *App) *cobra.Command {
	var email, out string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a user's records as CSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := app.recordsFor(cmd.Context(), email)
			if err != nil {
				return err
			}

			var w io.Writer = cmd.OutOrStdout()
			if out != "" {
				if out == "." {
					out = service.ExportFilename(app.Clock)
				}
				f, err := os.Create(out)
				if err != nil {
					return err
				}
				defer f.Close()
				w = f
			}
			if err := service.ExportCSV(w, recs); err != nil {
				return err
			}
			if out != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Exported %d records to %s\n", len(recs), out)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	cmd.Flags().StringVar(&out, "out", "", `Output file; "." uses the dated default name (default stdout)`)
	_ = cmd.MarkFlagRequired("email")

	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	var email string

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Print a user's sleep statistics",
		RunE: func(cmd *cobra.Command, args []string) error {
			recs, err := app.recordsFor(cmd.Context(), email)
			if err != nil {
				return err
			}
			s := service.CalculateSleepStats(recs)
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "Average: %sh\n", s.Average)
			fmt.Fprintf(w, "Best:    %sh\n", s.Best)
			fmt.Fprintf(w, "Worst:   %sh\n", s.Worst)
			fmt.Fprintf(w, "Records: %d\n", s.Total)
			return nil
		},
	}

	cmd.Flags().StringVar(&email, "email", "", "Account email")
	_ = cmd.MarkFlagRequired("email")

	return cmd
}
