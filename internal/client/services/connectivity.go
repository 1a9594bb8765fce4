package services

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/logging"
)

const defaultPingTimeout = 3 * time.Second

// Connectivity tells the resolver whether the directory is reachable.
type Connectivity interface {
	Online() bool
}

type Pinger interface {
	Ping(ctx context.Context) error
}

// OnlineWatcher tracks server reachability by pinging it periodically.
// It starts offline until the first successful check.
type OnlineWatcher struct {
	pinger   Pinger
	log      logging.Logger
	timeout  time.Duration
	online   atomic.Bool
	onChange func(online bool)
}

func NewOnlineWatcher(p Pinger, log logging.Logger) *OnlineWatcher {
	return &OnlineWatcher{pinger: p, log: log, timeout: defaultPingTimeout}
}

// OnChange registers fn to be called after every mode switch. Set it before
// Run.
func (w *OnlineWatcher) OnChange(fn func(online bool)) {
	w.onChange = fn
}

func (w *OnlineWatcher) Online() bool {
	return w.online.Load()
}

// Check pings once, updates the state and returns it.
func (w *OnlineWatcher) Check(ctx context.Context) bool {
	pingCtx, cancel := context.WithTimeout(ctx, w.timeout)
	err := w.pinger.Ping(pingCtx)
	cancel()

	online := err == nil
	if w.online.Swap(online) != online {
		if online {
			w.log.Info(ctx, "directory reachable, switching to online mode")
		} else {
			w.log.Warn(ctx, "directory unreachable, switching to offline mode", "error", err)
		}
		if w.onChange != nil {
			w.onChange(online)
		}
	}
	return online
}

// Run checks immediately, then every interval until ctx is done.
func (w *OnlineWatcher) Run(ctx context.Context, interval time.Duration) {
	w.Check(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			w.Check(ctx)
		case <-ctx.Done():
			return
		}
	}
}
