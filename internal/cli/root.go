// Package cli implements bookshelfctl, the command line client that works
// directly against the configured database.
package cli

import (
	"context"
	"io"
	"os"

	"github.com/deppfellow/bookshelf/internal/config"
	"github.com/deppfellow/bookshelf/internal/database"
	"github.com/deppfellow/bookshelf/internal/logger"
	"github.com/deppfellow/bookshelf/internal/repository"
	"github.com/deppfellow/bookshelf/internal/server"
	"github.com/deppfellow/bookshelf/internal/service"
	"github.com/fatih/color"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

// app carries what every command needs. The database is opened lazily, so
// commands like `email preview` run without one.
type app struct {
	loadConfig func() (*config.Config, error)
	out        io.Writer
	errOut     io.Writer
	jsonOutput bool

	log      *zerolog.Logger
	server   *server.Server
	services *service.Services
}

// Execute runs bookshelfctl with os.Args and exits non-zero on failure.
func Execute() {
	a := &app{
		loadConfig: config.LoadConfig,
		out:        os.Stdout,
		errOut:     os.Stderr,
	}

	if err := a.execute(newRootCommand(a)); err != nil {
		color.New(color.FgRed, color.Bold).Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
}

func newRootCommand(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:   "bookshelfctl",
		Short: "Manage the bookshelf database from the command line",
		Long: `bookshelfctl works directly against the database configured through
BOOKSHELF_* environment variables (or .env).

Examples:

  bookshelfctl migrate
  bookshelfctl posts create --title "Hello" --published
  bookshelfctl posts list --published true --json
  bookshelfctl seed --file fixtures.yaml
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().BoolVar(&a.jsonOutput, "json", false, "Print results as JSON")

	root.AddCommand(
		newMigrateCommand(a),
		newPostsCommand(a),
		newSeedCommand(a),
		newEmailCommand(a),
	)

	return root
}

// execute runs cmd and closes the database afterwards, also when cmd failed.
func (a *app) execute(cmd *cobra.Command) error {
	err := cmd.Execute()
	if closeErr := a.close(); closeErr != nil && err == nil {
		err = errors.Wrap(closeErr, "failed to close database")
	}
	return err
}

// open loads the configuration and opens the database once.
func (a *app) open() error {
	if a.server != nil {
		return nil
	}

	cfg, err := a.loadConfig()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	// Logs go to stderr so --json output stays machine readable.
	log := logger.NewLogger(cfg.Observability.GetLogLevel(), cfg.Observability.IsProduction()).
		Output(zerolog.ConsoleWriter{Out: a.errOut, TimeFormat: "15:04:05"})
	a.log = &log

	db, err := database.New(cfg, a.log, nil)
	if err != nil {
		return errors.Wrap(err, "failed to open database")
	}

	a.server = &server.Server{
		Config: cfg,
		Logger: a.log,
		DB:     db,
	}
	a.services = service.NewServices(a.server, repository.NewRepositories())

	return nil
}

// migrate applies the embedded migrations; every data command runs it first.
func (a *app) migrate(ctx context.Context) error {
	if err := a.open(); err != nil {
		return err
	}
	return database.Migrate(ctx, a.log, a.server.DB)
}

func (a *app) close() error {
	if a.server == nil {
		return nil
	}

	err := a.server.DB.Close()
	a.server = nil
	a.services = nil

	return err
}
