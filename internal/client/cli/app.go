package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/client/client"
	"github.com/dmitrijs2005/gophdirectory/internal/client/config"
	"github.com/dmitrijs2005/gophdirectory/internal/client/services"
	"github.com/dmitrijs2005/gophdirectory/internal/client/workqueue"
	"github.com/dmitrijs2005/gophdirectory/internal/filex"
	"github.com/dmitrijs2005/gophdirectory/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Mode string

const (
	ModeOffline Mode = "offline"
	ModeOnline  Mode = "online"
)

const uploadTimeout = 30 * time.Second

type App struct {
	config     *config.Config
	log        logging.Logger
	repos      *client.Repositories
	client     client.Client
	watcher    *services.OnlineWatcher
	queue      *workqueue.Queue
	recipients services.RecipientService
	http       *http.Client
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	dir, err := filex.EnsureDir(c.DataDir)
	if err != nil {
		return nil, fmt.Errorf("data dir: %w", err)
	}
	c.DataDir = dir

	repos, err := client.InitDatabase(ctx, c.DatabasePath())
	if err != nil {
		log.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	apiClient, err := client.NewDirectoryClient(c.ServerEndpointAddr, client.CacheConfig{
		Size: c.ResponseCacheSize,
		TTL:  c.ResponseCacheTTL,
	})
	if err != nil {
		_ = repos.Close()
		return nil, err
	}

	return newApp(c, log, repos, apiClient), nil
}

func newApp(c *config.Config, log logging.Logger, repos *client.Repositories, apiClient client.Client) *App {
	watcher := services.NewOnlineWatcher(apiClient, log)
	watcher.OnChange(func(online bool) {
		printlnFn(fmt.Sprintf("Switched to %s mode", modeOf(online)))
	})

	rs := services.NewRecipientService(apiClient, repos, watcher,
		services.WithLogger(log.With("component", "recipients")),
		services.WithRefreshInterval(c.UserRefreshInterval))

	return &App{
		config:     c,
		log:        log,
		repos:      repos,
		client:     apiClient,
		watcher:    watcher,
		queue:      workqueue.New(c.Workers),
		recipients: rs,
		http:       &http.Client{Timeout: uploadTimeout},
	}
}

func modeOf(online bool) Mode {
	if online {
		return ModeOnline
	}
	return ModeOffline
}

func (a *App) Mode() Mode {
	return modeOf(a.watcher.Online())
}

// Run starts the background workers and the REPL over in. It returns when
// the user exits, in is exhausted or ctx is cancelled.
func (a *App) Run(ctx context.Context, in io.Reader) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	defer a.Close()

	a.watcher.Check(ctx)
	go a.watcher.Run(ctx, a.config.OnlineCheckInterval)

	if a.config.MetricsAddr != "" {
		srv := a.startMetrics(ctx)
		defer func() { _ = srv.Close() }()
	}

	printlnFn("Welcome to gophdirectory CLI (type 'help' for commands)")
	runREPL(ctx, a, a.status, newScanner(in))
	return nil
}

func (a *App) startMetrics(ctx context.Context) *http.Server {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{
		Addr:              a.config.MetricsAddr,
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.Error(ctx, "metrics server failed", "error", err)
		}
	}()
	return srv
}

func (a *App) status() string {
	return string(a.Mode())
}

// Close waits for queued lookups, then releases the client and the cache.
func (a *App) Close() {
	a.queue.Wait()
	if err := a.client.Close(); err != nil {
		a.log.Warn(context.Background(), "closing directory client", "error", err)
	}
	if a.repos != nil {
		if err := a.repos.Close(); err != nil {
			a.log.Warn(context.Background(), "closing cache database", "error", err)
		}
	}
}
