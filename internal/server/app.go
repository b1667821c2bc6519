// Package server wires the YaMDb API process: storage, migrations, the
// identity and catalog services, and the HTTP and gRPC endpoints, all run
// under a supervisor until a termination signal arrives.
package server

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/yamdb/internal/logging"
	"github.com/dmitrijs2005/yamdb/internal/server/authz"
	"github.com/dmitrijs2005/yamdb/internal/server/config"
	"github.com/dmitrijs2005/yamdb/internal/server/httpapi"
	"github.com/dmitrijs2005/yamdb/internal/server/mail"
	"github.com/dmitrijs2005/yamdb/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/yamdb/internal/server/services"
	"github.com/thejerf/suture/v4"

	gs "github.com/dmitrijs2005/yamdb/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	http   *httpapi.HTTPServer
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {

	logger := logging.New(os.Stdout, c.LogFormat, c.LogLevel)

	db, err := repomanager.Open(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if c.MigrateOnStart {
		if err := rm.RunMigrations(ctx, db); err != nil {
			db.Close()
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	engine, err := authz.NewEngine(logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("authz init error: %w", err)
	}

	mailer, err := mail.New(ctx, c, logger)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("mail init error: %w", err)
	}

	identity := services.NewIdentityService(db, rm, engine, mailer, c, logger, time.Now)
	users := services.NewUserService(db, rm, engine, c)
	catalog := services.NewCatalogService(db, rm, engine, time.Now)
	reviews := services.NewReviewService(db, rm, engine)

	api := httpapi.NewAPI(identity, users, catalog, reviews, logger, httpapi.Options{
		CORSOrigins:     c.CORSOrigins,
		RateLimitAuth:   c.RateLimitAuth,
		RateLimitWindow: c.RateLimitWindow,
	})

	return &App{
		config: c,
		logger: logger,
		db:     db,
		http:   httpapi.NewHTTPServer(c.HTTPAddr, api.Routes(), logger),
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, identity),
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		app.grpc.MarkUnavailable()
		cancelFunc()
	}()
}

// runner adapts a Run(ctx) method to suture.Service.
type runner struct {
	name string
	run  func(ctx context.Context) error
}

func (r runner) Serve(ctx context.Context) error { return r.run(ctx) }

func (r runner) String() string { return r.name }

func (app *App) supervisor(ctx context.Context) *suture.Supervisor {
	sup := suture.New("yamdb", suture.Spec{
		EventHook: func(e suture.Event) {
			m := e.Map()
			args := make([]any, 0, 2*len(m))
			for k, v := range m {
				args = append(args, k, v)
			}
			app.logger.Warn(ctx, e.String(), args...)
		},
		FailureThreshold: 5,
		FailureDecay:     30,
		FailureBackoff:   15 * time.Second,
		Timeout:          15 * time.Second,
	})
	sup.Add(runner{name: "http-server", run: app.http.Run})
	sup.Add(runner{name: "grpc-server", run: app.grpc.Run})
	return sup
}

// Run blocks until a termination signal or ctx cancellation, then closes
// the database.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "http", app.config.HTTPAddr, "grpc", app.config.EndpointAddrGRPC)

	app.initSignalHandler(cancelFunc)

	err := app.supervisor(ctx).Serve(ctx)

	if cerr := app.db.Close(); cerr != nil {
		app.logger.Error(ctx, "closing database", "error", cerr)
	}

	app.logger.Info(ctx, "App stopped")

	if err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}
