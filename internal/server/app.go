// Package server wires the staffdesk application together: configuration,
// database and migrations, picture storage, services and the HTTP server. It
// also owns graceful shutdown.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/dmitrijs2005/staffdesk/internal/logging"
	"github.com/dmitrijs2005/staffdesk/internal/server/config"
	"github.com/dmitrijs2005/staffdesk/internal/server/httpserver"
	"github.com/dmitrijs2005/staffdesk/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/staffdesk/internal/server/services"
	"github.com/dmitrijs2005/staffdesk/internal/server/storage"
	"golang.org/x/time/rate"
)

// Seams for tests.
var (
	openDB = repomanager.OpenDB

	newRepositoryManager = func() repomanager.RepositoryManager {
		return repomanager.NewPostgresRepositoryManager()
	}

	newPictureStore = func(ctx context.Context, o storage.S3Options) (storage.PictureStore, error) {
		return storage.NewS3PictureStore(ctx, o)
	}
)

// App owns the server process resources: the database and the HTTP server.
type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	server *httpserver.Server
}

// NewApp connects to the database, applies migrations and builds the
// services. The caller must Run the app to release the database.
func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	logger := logging.NewJSONLogger(os.Stdout, slog.LevelInfo)
	return newApp(ctx, c, logger)
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := openDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	m := newRepositoryManager()
	if err := m.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db init error: %w", err)
	}

	pictures, err := newPictureStore(ctx, storage.S3Options{
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		Bucket:       c.S3Bucket,
		Region:       c.S3Region,
		BaseEndpoint: c.S3BaseEndpoint,
		URLValidity:  c.PictureURLValidityDuration,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("storage init error: %w", err)
	}

	us := services.NewUserService(db, m, pictures, logger, c)
	es := services.NewEmployeeService(db, m, pictures, logger)
	ts := services.NewTaskService(db, m, logger)

	srv := httpserver.NewServer(c.EndpointAddrHTTP, logger, us, es, ts, httpserver.Limits{
		MaxUploadSize: c.MaxUploadSize,
		AuthRate:      rate.Limit(c.AuthRateLimit),
	})

	return &App{config: c, logger: logger, db: db, server: srv}, nil
}

func (app *App) initSignalHandler(ctx context.Context, cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		defer signal.Stop(sigs)
		select {
		case s := <-sigs:
			app.logger.Info(ctx, "Signal received", "signal", s.String())
			cancelFunc()
		case <-ctx.Done():
		}
	}()
}

// Run serves HTTP until ctx is cancelled or a termination signal arrives.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")
	app.initSignalHandler(ctx, cancelFunc)

	err := app.server.Run(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing db", "error", cerr)
	}
	app.logger.Info(ctx, "App stopped")

	return err
}
