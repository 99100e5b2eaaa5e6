package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/MrEthical07/natours"
	"gopkg.in/gomail.v2"
)

// SMTPConfig holds the outbound mail server settings.
type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// Configured reports whether enough is set to send mail.
func (c SMTPConfig) Configured() bool {
	return c.Host != "" && c.Port > 0 && c.From != ""
}

type dialFunc func() (gomail.SendCloser, error)

// SMTPNotifier implements natours.Notifier over SMTP.
type SMTPNotifier struct {
	from   string
	dial   dialFunc
	logger *slog.Logger
}

// NewSMTPNotifier validates cfg and returns a notifier that dials per message.
func NewSMTPNotifier(cfg SMTPConfig, logger *slog.Logger) (*SMTPNotifier, error) {
	if !cfg.Configured() {
		return nil, errors.New("smtp host, port and sender are required")
	}
	if logger == nil {
		logger = slog.Default()
	}
	d := gomail.NewDialer(cfg.Host, cfg.Port, cfg.Username, cfg.Password)
	return &SMTPNotifier{from: cfg.From, dial: d.Dial, logger: logger}, nil
}

// Send dials, sends and hangs up. gomail has no context support, so a
// cancelled ctx abandons the in-flight send and returns ctx.Err().
func (n *SMTPNotifier) Send(ctx context.Context, msg natours.Message) error {
	if strings.TrimSpace(msg.To) == "" {
		return errors.New("empty recipient")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", n.from)
	m.SetHeader("To", msg.To)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.Text)

	done := make(chan error, 1)
	go func() {
		s, err := n.dial()
		if err != nil {
			done <- fmt.Errorf("smtp dial: %w", err)
			return
		}
		defer s.Close()
		if err := gomail.Send(s, m); err != nil {
			done <- fmt.Errorf("send email: %w", err)
			return
		}
		done <- nil
	}()

	select {
	case err := <-done:
		if err == nil {
			n.logger.InfoContext(ctx, "email sent", slog.String("to", msg.To), slog.String("subject", msg.Subject))
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// LogNotifier writes mail to the log instead of sending it. It stands in
// for SMTP in development.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier logs to logger, or slog.Default when nil.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{logger: logger}
}

// Send logs msg. It only fails when ctx is done.
func (n *LogNotifier) Send(ctx context.Context, msg natours.Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	n.logger.InfoContext(ctx, "email (not sent)",
		slog.String("to", msg.To),
		slog.String("subject", msg.Subject),
		slog.String("text", msg.Text),
	)
	return nil
}

var (
	_ natours.Notifier = (*SMTPNotifier)(nil)
	_ natours.Notifier = (*LogNotifier)(nil)
)
