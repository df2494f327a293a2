package config

import (
	"encoding/json"
	"os"
	"time"

	"github.com/dmitrijs2005/signupd/internal/flagx"
	"github.com/dmitrijs2005/signupd/internal/timex"
)

// JsonConfig defines a configuration structure tailored for JSON unmarshalling.
// It uses timex.Duration for interval fields, which allows parsing both
// string values such as "15m" and integer nanoseconds. Numeric and boolean
// fields are pointers so that an explicit zero can be told from an absent key.
type JsonConfig struct {
	EndpointAddrGRPC   string         `json:"endpoint_addr_grpc"`
	DatabaseDSN        string         `json:"database_dsn"`
	SecretKey          string         `json:"secret_key"`
	AdminToken         string         `json:"admin_token"`
	AppName            string         `json:"app_name"`
	CodeTTL            timex.Duration `json:"code_ttl"`
	MaxAttempts        *int           `json:"max_attempts"`
	ResendRetries      *int           `json:"resend_retries"`
	ResendBackoff      timex.Duration `json:"resend_backoff"`
	SweepInterval      timex.Duration `json:"sweep_interval"`
	MailTransport      string         `json:"mail_transport"`
	MailFrom           string         `json:"mail_from"`
	SMTPHost           string         `json:"smtp_host"`
	SMTPPort           *int           `json:"smtp_port"`
	SMTPUsername       string         `json:"smtp_username"`
	SMTPPassword       string         `json:"smtp_password"`
	SESRegion          string         `json:"ses_region"`
	SESAccessKeyID     string         `json:"ses_access_key_id"`
	SESSecretAccessKey string         `json:"ses_secret_access_key"`
	SESBaseEndpoint    string         `json:"ses_base_endpoint"`
	RedisAddr          string         `json:"redis_addr"`
	MetricsAddr        *string        `json:"metrics_addr"`
	CheckMX            *bool          `json:"check_mx"`
	LogLevel           string         `json:"log_level"`
	LogFormat          string         `json:"log_format"`
}

// parseJson loads configuration values from a JSON file into the provided
// Config instance.
//
// The file path comes from the -c or -config command-line flags. If neither
// is set, no JSON file is loaded. Keys missing from the file keep their
// current values. If the file cannot be read or contains invalid JSON, the
// function panics.
func parseJson(config *Config) {

	// try flags
	jsonConfigFile := flagx.ConfigPath(os.Args[1:])

	// nothing to load
	if jsonConfigFile == "" {
		return
	}

	c := &JsonConfig{}

	file, err := os.ReadFile(jsonConfigFile)
	if err != nil {
		panic(err)
	}

	err = json.Unmarshal(file, c)
	if err != nil {
		panic(err)
	}

	setString(&config.EndpointAddrGRPC, c.EndpointAddrGRPC)
	setString(&config.DatabaseDSN, c.DatabaseDSN)
	setString(&config.SecretKey, c.SecretKey)
	setString(&config.AdminToken, c.AdminToken)
	setString(&config.AppName, c.AppName)
	setDuration(&config.CodeTTL, c.CodeTTL)
	setInt(&config.MaxAttempts, c.MaxAttempts)
	setInt(&config.ResendRetries, c.ResendRetries)
	setDuration(&config.ResendBackoff, c.ResendBackoff)
	setDuration(&config.SweepInterval, c.SweepInterval)
	setString(&config.MailTransport, c.MailTransport)
	setString(&config.MailFrom, c.MailFrom)
	setString(&config.SMTPHost, c.SMTPHost)
	setInt(&config.SMTPPort, c.SMTPPort)
	setString(&config.SMTPUsername, c.SMTPUsername)
	setString(&config.SMTPPassword, c.SMTPPassword)
	setString(&config.SESRegion, c.SESRegion)
	setString(&config.SESAccessKeyID, c.SESAccessKeyID)
	setString(&config.SESSecretAccessKey, c.SESSecretAccessKey)
	setString(&config.SESBaseEndpoint, c.SESBaseEndpoint)
	setString(&config.RedisAddr, c.RedisAddr)
	if c.MetricsAddr != nil {
		config.MetricsAddr = *c.MetricsAddr
	}
	if c.CheckMX != nil {
		config.CheckMX = *c.CheckMX
	}
	setString(&config.LogLevel, c.LogLevel)
	setString(&config.LogFormat, c.LogFormat)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

func setDuration(dst *time.Duration, v timex.Duration) {
	if v.Duration != 0 {
		*dst = v.Duration
	}
}
