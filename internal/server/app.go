// Package server initializes and runs the directory server: it opens and
// migrates PostgreSQL, builds the avatar presigner and the directory
// service, and serves gRPC plus Prometheus metrics until shutdown.
package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/logging"
	"github.com/dmitrijs2005/gophdirectory/internal/server/avatars"
	"github.com/dmitrijs2005/gophdirectory/internal/server/config"
	"github.com/dmitrijs2005/gophdirectory/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophdirectory/internal/server/services"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	gs "github.com/dmitrijs2005/gophdirectory/internal/server/grpc"
)

type App struct {
	config *config.Config
	logger logging.Logger
	db     *sql.DB
	grpc   *gs.GRPCServer
}

func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	db, err := repomanager.OpenDB(ctx, c.DatabaseDSN)
	if err != nil {
		return nil, fmt.Errorf("db init error: %w", err)
	}

	rm := repomanager.NewPostgresRepositoryManager()
	if err := rm.RunMigrations(ctx, db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("migrations error: %w", err)
	}

	presigner, err := avatars.NewS3Presigner(ctx, avatars.S3Config{
		Region:       c.S3Region,
		AccessKey:    c.S3RootUser,
		SecretKey:    c.S3RootPassword,
		BaseEndpoint: c.S3BaseEndpoint,
		Bucket:       c.S3Bucket,
		Expires:      c.AvatarURLValidity,
	})
	if err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("avatar storage init error: %w", err)
	}

	ds := services.NewDirectoryService(db, rm, presigner, c, logger)
	return newApp(c, logger, db, ds), nil
}

func newApp(c *config.Config, logger logging.Logger, db *sql.DB, ds *services.DirectoryService) *App {
	return &App{
		config: c,
		logger: logger,
		db:     db,
		grpc:   gs.NewGRPCServer(c.EndpointAddrGRPC, logger, ds),
	}
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	// Channel to catch OS signals.
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func metricsHandler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	return mux
}

// serveMetrics runs the Prometheus endpoint until ctx is done.
func (app *App) serveMetrics(ctx context.Context) error {
	srv := &http.Server{
		Addr:              app.config.MetricsAddr,
		Handler:           metricsHandler(),
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	app.logger.Info(ctx, "Starting metrics server", "address", app.config.MetricsAddr)

	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Run serves until ctx is cancelled, a signal arrives or one of the
// listeners fails. The database is closed on return.
func (app *App) Run(ctx context.Context) error {

	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return app.grpc.Run(gctx)
	})

	if app.config.MetricsAddr != "" {
		g.Go(func() error {
			return app.serveMetrics(gctx)
		})
	}

	err := g.Wait()

	if app.db != nil {
		if cerr := app.db.Close(); cerr != nil {
			app.logger.Error(ctx, "db close failed", "error", cerr)
		}
	}

	if err != nil {
		app.logger.Error(ctx, err.Error())
		return err
	}

	app.logger.Info(ctx, "Stopped")
	return nil
}
