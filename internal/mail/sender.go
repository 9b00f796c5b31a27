package mail

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/gomail.v2"

	"github.com/campus-it/helpdesk/internal/domain"
)

// Message is a rendered email ready for delivery.
type Message struct {
	To        []string
	Subject   string
	PlainBody string
	HTMLBody  string
}

// Sender delivers a message with the mail settings current at send time.
type Sender interface {
	Send(ctx context.Context, cfg domain.MailSettings, msg Message) error
}

// SMTPSender delivers through gomail over a connection bound to the send
// context. Settings are read per send because they can change at runtime.
type SMTPSender struct {
	dialer net.Dialer
}

func NewSMTPSender() *SMTPSender {
	return &SMTPSender{}
}

// defaultSessionTimeout bounds a session whose context has no deadline.
const defaultSessionTimeout = 30 * time.Second

// Send runs one SMTP session in the calling goroutine. The connection
// deadline follows ctx, and cancelling ctx closes the connection, so no
// session outlives the caller.
func (s *SMTPSender) Send(ctx context.Context, cfg domain.MailSettings, msg Message) error {
	if len(msg.To) == 0 {
		return errors.New("no recipients")
	}

	m := gomail.NewMessage()
	m.SetHeader("From", fromAddress(cfg))
	m.SetHeader("To", msg.To...)
	m.SetHeader("Subject", msg.Subject)
	m.SetBody("text/plain", msg.PlainBody)
	m.AddAlternative("text/html", msg.HTMLBody)

	client, stop, err := s.open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	defer stop()
	defer client.Close()

	deliver := gomail.SendFunc(func(from string, to []string, body io.WriterTo) error {
		return transmit(client, from, to, body)
	})
	if err := gomail.Send(deliver, m); err != nil {
		return fmt.Errorf("failed to send email: %w", sessionErr(ctx, err))
	}
	if err := client.Quit(); err != nil {
		return fmt.Errorf("failed to send email: %w", sessionErr(ctx, err))
	}
	return nil
}

// open dials, negotiates TLS and authenticates. stop releases the
// cancellation hook.
func (s *SMTPSender) open(ctx context.Context, cfg domain.MailSettings) (*smtp.Client, func() bool, error) {
	conn, err := s.dialer.DialContext(ctx, "tcp", net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port)))
	if err != nil {
		return nil, nil, err
	}
	deadline, ok := ctx.Deadline()
	if !ok {
		deadline = time.Now().Add(defaultSessionTimeout)
	}
	if err := conn.SetDeadline(deadline); err != nil {
		conn.Close()
		return nil, nil, err
	}
	stop := context.AfterFunc(ctx, func() { conn.Close() })

	tlsConfig := &tls.Config{ServerName: cfg.Host, MinVersion: tls.VersionTLS12}
	implicitTLS := cfg.UseTLS && cfg.Port == 465
	if implicitTLS {
		conn = tls.Client(conn, tlsConfig)
	}
	client, err := smtp.NewClient(conn, cfg.Host)
	if err != nil {
		stop()
		conn.Close()
		return nil, nil, sessionErr(ctx, err)
	}
	if err := handshake(client, cfg, tlsConfig, implicitTLS); err != nil {
		stop()
		client.Close()
		return nil, nil, sessionErr(ctx, err)
	}
	return client, stop, nil
}

func handshake(client *smtp.Client, cfg domain.MailSettings, tlsConfig *tls.Config, implicitTLS bool) error {
	if !implicitTLS {
		if ok, _ := client.Extension("STARTTLS"); ok {
			if err := client.StartTLS(tlsConfig); err != nil {
				return err
			}
		}
	}
	if cfg.Username == "" {
		return nil
	}
	ok, mechanisms := client.Extension("AUTH")
	if !ok {
		return nil
	}
	if strings.Contains(mechanisms, "CRAM-MD5") {
		return client.Auth(smtp.CRAMMD5Auth(cfg.Username, cfg.Password))
	}
	return client.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host))
}

func transmit(client *smtp.Client, from string, to []string, body io.WriterTo) error {
	if err := client.Mail(from); err != nil {
		return err
	}
	for _, rcpt := range to {
		if err := client.Rcpt(rcpt); err != nil {
			return err
		}
	}
	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := body.WriteTo(w); err != nil {
		w.Close()
		return err
	}
	return w.Close()
}

// sessionErr reports the context error when cancellation caused err.
func sessionErr(ctx context.Context, err error) error {
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	return err
}

func fromAddress(cfg domain.MailSettings) string {
	if cfg.FromEmail != "" {
		return cfg.FromEmail
	}
	return cfg.Username
}
