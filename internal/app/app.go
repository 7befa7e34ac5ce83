package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/lcalzada-xor/pktsender/internal/adapters/injection"
	"github.com/lcalzada-xor/pktsender/internal/adapters/netif"
	"github.com/lcalzada-xor/pktsender/internal/adapters/storage"
	"github.com/lcalzada-xor/pktsender/internal/adapters/web"
	webserver "github.com/lcalzada-xor/pktsender/internal/adapters/web/server"
	"github.com/lcalzada-xor/pktsender/internal/config"
	"github.com/lcalzada-xor/pktsender/internal/core/ports"
	"github.com/lcalzada-xor/pktsender/internal/core/services/fleet"
	"github.com/lcalzada-xor/pktsender/internal/core/services/sender"
	"github.com/lcalzada-xor/pktsender/internal/telemetry"
)

// Application holds the core components of the application.
// It acts as the Facade for the entire system, orchestrating services and infrastructure.
type Application struct {
	Config    *config.Config
	Fleet     *fleet.Service
	Journal   *storage.SQLiteAdapter
	WSManager *web.WSManager
	WebServer *webserver.Server

	factory  ports.InjectorFactory
	resolver ports.InterfaceResolver
	log      *slog.Logger
}

// Option overrides an infrastructure component, mostly for tests.
type Option func(*Application)

func WithInjectorFactory(f ports.InjectorFactory) Option {
	return func(app *Application) { app.factory = f }
}

func WithResolver(r ports.InterfaceResolver) Option {
	return func(app *Application) { app.resolver = r }
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, opts ...Option) (*Application, error) {
	app := &Application{
		Config: cfg,
		log:    slog.Default().With("component", "app"),
	}
	for _, opt := range opts {
		opt(app)
	}

	if err := app.bootstrap(); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap() error {
	telemetry.InitMetrics()

	journal, err := storage.NewSQLiteAdapter(app.Config.DBPath)
	if err != nil {
		return fmt.Errorf("activity journal: %w", err)
	}
	app.Journal = journal

	if app.factory == nil {
		app.factory = injection.NewFactory(app.Config.MockMode)
	}
	if app.resolver == nil {
		app.resolver = netif.NewSystemResolver()
	}
	if app.Config.MockMode {
		app.log.Info("Mock Mode Active: frames are recorded, not transmitted")
	}

	app.WSManager = web.NewWSManager(app.Config.AllowedOrigins)

	svc, err := fleet.New(app.Config.Senders(), app.factory, app.resolver,
		fleet.WithJournal(journal),
		fleet.WithPublisher(app.WSManager),
		fleet.WithSenderOptions(sender.WithGracePeriod(app.Config.GracePeriod)),
	)
	if err != nil {
		return err
	}
	app.Fleet = svc

	app.WebServer = webserver.NewServer(app.Config.Addr, svc, app.WSManager)
	return nil
}

// Run serves the API until ctx is cancelled, then releases every sender.
func (app *Application) Run(ctx context.Context) error {
	app.log.Info("pktsender starting", "senders", app.Fleet.Interfaces(), "addr", app.Config.Addr)

	errChan := make(chan error, 1)
	go func() {
		if err := app.WebServer.Run(ctx); err != nil {
			errChan <- fmt.Errorf("web server error: %w", err)
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		app.log.Info("Termination signal received")
	case runErr = <-errChan:
	}
	return errors.Join(runErr, app.cleanup())
}

func (app *Application) cleanup() error {
	var errs []error
	if app.Fleet != nil {
		if err := app.Fleet.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing senders: %w", err))
		}
		app.Fleet = nil
	}
	if app.Journal != nil {
		if err := app.Journal.Close(); err != nil {
			errs = append(errs, fmt.Errorf("closing journal: %w", err))
		}
		app.Journal = nil
	}
	return errors.Join(errs...)
}
