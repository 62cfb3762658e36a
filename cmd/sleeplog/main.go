package main

import (
	"context"
	"fmt"
	"os"

	"github.com/Ram4lh0/Sleep-App/internal"
	"github.com/Ram4lh0/Sleep-App/internal/cli"
	"github.com/Ram4lh0/Sleep-App/internal/config"
	"github.com/Ram4lh0/Sleep-App/internal/sleepcalc"
	"github.com/Ram4lh0/Sleep-App/internal/storage"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.ParseEnvFile(".env")
	if err != nil {
		return err
	}
	loc, err := cfg.Location()
	if err != nil {
		return err
	}

	logger, err := internal.NewLogger(cfg.Env, "warn")
	if err != nil {
		return err
	}
	defer logger.Sync()

	app := &cli.App{
		Clock: sleepcalc.SystemClock{Location: loc},
		Open: func(ctx context.Context) (*storage.Repositories, error) {
			return storage.Open(ctx, cfg, logger)
		},
	}
	defer app.Close()

	return cli.NewRootCmd(app).ExecuteContext(context.Background())
}
