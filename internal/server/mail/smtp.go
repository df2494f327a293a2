package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"net"
	"net/smtp"
	"net/textproto"
	"strconv"
	"time"

	"github.com/dmitrijs2005/signupd/internal/logging"
)

// SMTPConfig holds the submission server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
	Timeout  time.Duration
}

// SMTPSender submits messages to an SMTP server, upgrading with STARTTLS
// when offered and authenticating with PLAIN when a username is set.
type SMTPSender struct {
	cfg    SMTPConfig
	logger logging.Logger
	now    func() time.Time
}

func NewSMTPSender(cfg SMTPConfig, l logging.Logger) *SMTPSender {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &SMTPSender{cfg: cfg, logger: l.With("module", "mail_smtp"), now: time.Now}
}

func (s *SMTPSender) Send(ctx context.Context, to, subject, body string) error {
	msg, err := composeMessage(s.cfg.From, to, subject, body, s.now())
	if err != nil {
		return permanent(err)
	}

	addr := net.JoinHostPort(s.cfg.Host, strconv.Itoa(s.cfg.Port))

	dialer := net.Dialer{Timeout: s.cfg.Timeout}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return transient(fmt.Errorf("dial %s: %w", addr, err))
	}

	deadline := time.Now().Add(s.cfg.Timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}
	_ = conn.SetDeadline(deadline)

	c, err := smtp.NewClient(conn, s.cfg.Host)
	if err != nil {
		_ = conn.Close()
		return classifySMTP(fmt.Errorf("greeting: %w", err))
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: s.cfg.Host, MinVersion: tls.VersionTLS12}); err != nil {
			return classifySMTP(fmt.Errorf("starttls: %w", err))
		}
	}

	if s.cfg.Username != "" {
		auth := smtp.PlainAuth("", s.cfg.Username, s.cfg.Password, s.cfg.Host)
		if err := c.Auth(auth); err != nil {
			return classifyAuth(err)
		}
	}

	if err := c.Mail(s.cfg.From); err != nil {
		return classifySMTP(fmt.Errorf("mail from: %w", err))
	}
	if err := c.Rcpt(to); err != nil {
		return classifySMTP(fmt.Errorf("rcpt to: %w", err))
	}

	w, err := c.Data()
	if err != nil {
		return classifySMTP(fmt.Errorf("data: %w", err))
	}
	if _, err := w.Write(msg); err != nil {
		return classifySMTP(fmt.Errorf("data: %w", err))
	}
	if err := w.Close(); err != nil {
		return classifySMTP(fmt.Errorf("data: %w", err))
	}

	if err := c.Quit(); err != nil {
		s.logger.Warn(ctx, "smtp quit failed after delivery", "error", err)
	}

	s.logger.Debug(ctx, "message submitted", "to", to, "server", addr)
	return nil
}

// classifySMTP maps reply codes: 4xx is transient, 5xx permanent. Anything
// that is not a protocol reply is a connection problem, hence transient.
func classifySMTP(err error) error {
	var tp *textproto.Error
	if errors.As(err, &tp) {
		if tp.Code >= 400 && tp.Code < 500 {
			return transient(err)
		}
		return permanent(err)
	}
	return transient(err)
}

// classifyAuth treats every refusal during AUTH as an authentication failure
// except 4xx replies such as 454 (temporary authentication failure).
func classifyAuth(err error) error {
	var tp *textproto.Error
	if errors.As(err, &tp) && tp.Code >= 400 && tp.Code < 500 {
		return transient(fmt.Errorf("auth: %w", err))
	}
	return authentication(fmt.Errorf("auth: %w", err))
}
