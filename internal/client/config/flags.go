package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/gophdirectory/internal/flagx"
)

// parseFlags populates selected Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   address and port of the directory server
//	-i int      online check interval in seconds
//	-d string   data directory for the local cache
//	-r int      user refresh interval in seconds
//	-w int      resolver workers
//	-m string   metrics listen address
//
// os.Args is filtered through flagx.FilterArgs first so flags owned by other
// loaders (-c) do not break parsing.
func parseFlags(cfg *Config) {
	args := flagx.FilterArgs(os.Args[1:], []string{"-a", "-i", "-d", "-r", "-w", "-m"})

	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "address and port to access server")
	onlineCheckInterval := fs.Int("i", int(cfg.OnlineCheckInterval.Seconds()), "online check interval (in seconds)")
	fs.StringVar(&cfg.DataDir, "d", cfg.DataDir, "directory for the local cache database")
	refreshInterval := fs.Int("r", int(cfg.UserRefreshInterval.Seconds()), "cached profile refresh interval (in seconds)")
	fs.IntVar(&cfg.Workers, "w", cfg.Workers, "number of background resolver workers")
	fs.StringVar(&cfg.MetricsAddr, "m", cfg.MetricsAddr, "address to serve Prometheus metrics on (empty disables)")

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*onlineCheckInterval) * time.Second
	cfg.UserRefreshInterval = time.Duration(*refreshInterval) * time.Second
}
