// Command promoctl is the operator CLI of promo-hub: database migrations,
// admin users and counter maintenance. It reads the same environment as
// the server.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/eldoah/promo-hub/config"
	"github.com/eldoah/promo-hub/internal/infrastructure/persistence"
	"github.com/eldoah/promo-hub/pkg/logger"
	"github.com/fatih/color"
	"github.com/urfave/cli/v2"
)

var (
	okText   = color.New(color.FgGreen)
	warnText = color.New(color.FgYellow)
	errText  = color.New(color.FgRed, color.Bold)
	dimText  = color.New(color.Faint)
)

func main() {
	app := newApp(os.Stdout, os.Stderr)
	if err := app.Run(os.Args); err != nil {
		errText.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// env is what every command needs once configuration is loaded.
type env struct {
	cfg *config.Config
	log *slog.Logger
	out io.Writer
}

func newApp(stdout, stderr io.Writer) *cli.App {
	return &cli.App{
		Name:      "promoctl",
		Usage:     "operate a promo-hub deployment",
		Writer:    stdout,
		ErrWriter: stderr,
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "verbose",
				Usage: "log at debug level",
			},
		},
		Commands: []*cli.Command{
			migrateCommand(),
			adminCommand(),
			counterCommand(),
			configCommand(),
		},
	}
}

// load reads configuration and builds a logger that writes to stderr,
// keeping stdout for command output.
func load(c *cli.Context) (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := "warn"
	if c.Bool("verbose") {
		level = "debug"
	}
	log := logger.NewWithOptions(logger.Options{
		Output: c.App.ErrWriter,
		Level:  logger.ParseLevel(level),
		Format: logger.FormatText,
	})

	return &env{cfg: cfg, log: log, out: c.App.Writer}, nil
}

// withStores opens the configured store for the duration of fn.
func withStores(c *cli.Context, opts persistence.Options, fn func(e *env, st *persistence.Stores) error) error {
	e, err := load(c)
	if err != nil {
		return err
	}

	st, err := persistence.Open(c.Context, e.cfg, opts, e.log)
	if err != nil {
		return err
	}
	defer st.Close(context.Background())

	if st.Driver == config.DriverMemory {
		warnText.Fprintln(e.out, "warning: STORAGE_DRIVER=memory, changes vanish when promoctl exits")
	}
	return fn(e, st)
}

func configCommand() *cli.Command {
	return &cli.Command{
		Name:  "config",
		Usage: "validate the environment and print the effective settings",
		Action: func(c *cli.Context) error {
			e, err := load(c)
			if err != nil {
				return err
			}
			cfg := e.cfg

			okText.Fprintln(e.out, "configuration is valid")
			rows := []struct {
				key string
				val any
			}{
				{"environment", cfg.App.Environment},
				{"storage", cfg.Storage.Driver},
				{"redis", cfg.Redis.Enabled},
				{"http", fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)},
				{"cron secret", cfg.Auth.CronSecret != ""},
				{"bump range", fmt.Sprintf("%d..%d", cfg.Counter.BumpMin, cfg.Counter.BumpMax)},
				{"bump schedule", cfg.Scheduler.BumpCron},
				{"bump job", cfg.Scheduler.Enabled && cfg.Scheduler.BumpEnabled},
			}
			for _, r := range rows {
				dimText.Fprintf(e.out, "  %-14s", r.key)
				fmt.Fprintf(e.out, "%v\n", r.val)
			}
			return nil
		},
	}
}
