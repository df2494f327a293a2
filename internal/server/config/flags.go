package config

import (
	"flag"
	"os"
	"time"

	"github.com/dmitrijs2005/signupd/internal/flagx"
)

// parseFlags populates selected server Config fields from command-line flags.
//
// Supported flags (short forms):
//
//	-a string   gRPC bind address (e.g., ":50051")
//	-d string   database DSN
//	-s string   ticket HMAC secret key
//	-i string   admin token for ListAccounts (empty disables it)
//	-n string   application name shown in mails
//	-t int      verification code lifetime, minutes
//	-m int      wrong codes allowed per code (0 = unlimited)
//	-r int      resend retries on transient failures
//	-k int      pause between resend retries, seconds
//	-x string   mail transport: smtp, ses or log
//	-f string   sender address
//	-h string   SMTP host
//	-o int      SMTP port
//	-u string   SMTP user name
//	-p string   SMTP password
//	-g string   SES region
//	-l string   Redis address for distributed locks
//	-e string   metrics listen address
//
// Notes:
//   - os.Args is first filtered to the flags defined here using
//     flagx.FilterArgs, avoiding collisions with -c/-config.
//   - Duration flags are integers in the unit stated above.
func parseFlags(config *Config) {
	fs := flag.NewFlagSet("main", flag.ContinueOnError)

	fs.StringVar(&config.EndpointAddrGRPC, "a", config.EndpointAddrGRPC, "address and port to run server")
	fs.StringVar(&config.DatabaseDSN, "d", config.DatabaseDSN, "database DSN")
	fs.StringVar(&config.SecretKey, "s", config.SecretKey, "secret key")
	fs.StringVar(&config.AdminToken, "i", config.AdminToken, "admin token for listing accounts")
	fs.StringVar(&config.AppName, "n", config.AppName, "application name")

	codeTTL := fs.Int("t", int(config.CodeTTL.Minutes()), "verification code lifetime (in minutes)")
	fs.IntVar(&config.MaxAttempts, "m", config.MaxAttempts, "wrong codes allowed per code, 0 for unlimited")
	fs.IntVar(&config.ResendRetries, "r", config.ResendRetries, "resend retries")
	resendBackoff := fs.Int("k", int(config.ResendBackoff.Seconds()), "pause between resend retries (in seconds)")

	fs.StringVar(&config.MailTransport, "x", config.MailTransport, "mail transport (smtp, ses, log)")
	fs.StringVar(&config.MailFrom, "f", config.MailFrom, "sender address")
	fs.StringVar(&config.SMTPHost, "h", config.SMTPHost, "SMTP host")
	fs.IntVar(&config.SMTPPort, "o", config.SMTPPort, "SMTP port")
	fs.StringVar(&config.SMTPUsername, "u", config.SMTPUsername, "SMTP user name")
	fs.StringVar(&config.SMTPPassword, "p", config.SMTPPassword, "SMTP password")
	fs.StringVar(&config.SESRegion, "g", config.SESRegion, "SES region")
	fs.StringVar(&config.RedisAddr, "l", config.RedisAddr, "Redis address for locks")
	fs.StringVar(&config.MetricsAddr, "e", config.MetricsAddr, "metrics listen address")

	// Filter args to include only the flags handled here.
	args := flagx.FilterArgs(os.Args[1:], flagx.FlagNames(fs))

	if err := fs.Parse(args); err != nil {
		panic(err)
	}

	config.CodeTTL = time.Duration(*codeTTL) * time.Minute
	config.ResendBackoff = time.Duration(*resendBackoff) * time.Second
}
