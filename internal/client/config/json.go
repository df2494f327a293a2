package config

import (
	"encoding/json"
	"os"

	"github.com/dmitrijs2005/signupd/internal/flagx"
	"github.com/dmitrijs2005/signupd/internal/timex"
)

type fileConfig struct {
	ServerEndpointAddr  string         `json:"server_endpoint_addr"`
	OnlineCheckInterval timex.Duration `json:"online_check_interval"`
	RequestTimeout      timex.Duration `json:"request_timeout"`
	AdminToken          string         `json:"admin_token"`
}

// parseJson overlays the file named by -c/-config, if any. Empty and zero
// values in the file are ignored. An unreadable or malformed file panics.
func parseJson(cfg *Config) {
	path := flagx.ConfigPath(os.Args[1:])
	if path == "" {
		return
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		panic(err)
	}
	var fc fileConfig
	if err := json.Unmarshal(raw, &fc); err != nil {
		panic(err)
	}

	fc.apply(cfg)
}

func (fc fileConfig) apply(cfg *Config) {
	if fc.ServerEndpointAddr != "" {
		cfg.ServerEndpointAddr = fc.ServerEndpointAddr
	}
	if d := fc.OnlineCheckInterval.Duration; d != 0 {
		cfg.OnlineCheckInterval = d
	}
	if d := fc.RequestTimeout.Duration; d != 0 {
		cfg.RequestTimeout = d
	}
	if fc.AdminToken != "" {
		cfg.AdminToken = fc.AdminToken
	}
}
