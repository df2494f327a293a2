package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/signupd/internal/flagx"
)

// parseFlags applies the console flags. Arguments meant for other parsers
// (-c/-config, go test flags) are dropped before parsing; a malformed value
// panics.
func parseFlags(cfg *Config) {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)

	fs.StringVar(&cfg.ServerEndpointAddr, "a", cfg.ServerEndpointAddr, "signupd endpoint (host:port)")
	checkEvery := fs.Int("i", seconds(cfg.OnlineCheckInterval), "seconds between reachability checks")
	timeout := fs.Int("t", seconds(cfg.RequestTimeout), "RPC deadline in seconds")
	fs.StringVar(&cfg.AdminToken, "k", cfg.AdminToken, "operator token for listing accounts")

	if err := fs.Parse(flagx.FilterArgs(os.Args[1:], flagx.FlagNames(fs))); err != nil {
		panic(err)
	}

	cfg.OnlineCheckInterval = time.Duration(*checkEvery) * time.Second
	cfg.RequestTimeout = time.Duration(*timeout) * time.Second
}

func seconds(d time.Duration) int { return int(d / time.Second) }
