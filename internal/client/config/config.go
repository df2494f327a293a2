package config

import "time"

const (
	defaultEndpoint      = "127.0.0.1:50051"
	defaultCheckInterval = 3 * time.Second
	defaultTimeout       = 10 * time.Second
)

type Config struct {
	ServerEndpointAddr  string
	OnlineCheckInterval time.Duration
	// RequestTimeout should stay above the server's resend retry budget.
	RequestTimeout time.Duration
	// AdminToken is only needed for listing accounts.
	AdminToken string
}

func (c *Config) LoadDefaults() {
	*c = Config{
		ServerEndpointAddr:  defaultEndpoint,
		OnlineCheckInterval: defaultCheckInterval,
		RequestTimeout:      defaultTimeout,
	}
}

// LoadConfig returns the console settings for the current process arguments.
func LoadConfig() *Config {
	cfg := new(Config)
	cfg.LoadDefaults()
	parseJson(cfg)
	parseFlags(cfg)
	return cfg
}
