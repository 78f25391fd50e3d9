package notify

import (
	"context"
	"crypto/tls"
	"fmt"
	"mime"
	"net"
	"net/smtp"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/skilllink-support/internal/config"
)

// DefaultSendTimeout bounds one relay conversation when ctx carries no deadline.
const DefaultSendTimeout = 30 * time.Second

type sendMailFunc func(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error

// EmailNotifier sends notifications through an SMTP relay.
type EmailNotifier struct {
	cfg      config.NotificationConfig
	logger   *zap.Logger
	sendMail sendMailFunc
}

// NewEmailNotifier creates a notifier from SMTP settings.
func NewEmailNotifier(cfg config.NotificationConfig, logger *zap.Logger) *EmailNotifier {
	return &EmailNotifier{cfg: cfg, logger: logger, sendMail: sendMail}
}

// Channel implements Notifier.
func (e *EmailNotifier) Channel() string {
	return "email"
}

// Configured reports whether SMTP credentials are present.
func (e *EmailNotifier) Configured() bool {
	return e.cfg.SMTPUser != "" && e.cfg.SMTPPassword != ""
}

// Send delivers msg. Without credentials the message is logged instead.
func (e *EmailNotifier) Send(ctx context.Context, msg *Message) error {
	if !e.Configured() {
		e.logger.Info("smtp not configured; email logged only",
			zap.String("to", msg.To),
			zap.String("subject", msg.Subject))
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	auth := smtp.PlainAuth("", e.cfg.SMTPUser, e.cfg.SMTPPassword, e.cfg.SMTPHost)
	addr := fmt.Sprintf("%s:%s", e.cfg.SMTPHost, e.cfg.SMTPPort)

	if err := e.sendMail(ctx, addr, auth, e.cfg.EmailFrom, []string{msg.To}, e.compose(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	e.logger.Info("email sent", zap.String("to", msg.To), zap.String("subject", msg.Subject))
	return nil
}

func (e *EmailNotifier) compose(msg *Message) []byte {
	return []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=UTF-8\r\n"+
		"\r\n%s",
		mime.QEncoding.Encode("utf-8", e.cfg.FromName), e.cfg.EmailFrom, msg.To,
		mime.QEncoding.Encode("utf-8", msg.Subject), msg.HTMLBody))
}

// sendMail runs one SMTP conversation over a connection bounded by ctx.
func sendMail(ctx context.Context, addr string, a smtp.Auth, from string, to []string, msg []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(DefaultSendTimeout)
	}

	dialer := net.Dialer{Deadline: deadline}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })
	defer stop()

	c, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer c.Close()

	if ok, _ := c.Extension("STARTTLS"); ok {
		if err := c.StartTLS(&tls.Config{ServerName: host}); err != nil {
			return err
		}
	}
	if a != nil {
		if ok, _ := c.Extension("AUTH"); ok {
			if err := c.Auth(a); err != nil {
				return err
			}
		}
	}
	if err := c.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}
	return c.Quit()
}
