// Package mailer delivers contact form submissions over SMTP.
package mailer

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/smtp"
	"strings"

	"igdownloader/pkg/config"
	"igdownloader/pkg/errors"
	"igdownloader/pkg/logger"
)

// Message is one contact form submission
type Message struct {
	Name    string
	Email   string
	Subject string
	Message string
}

// Validate checks that every field is present
func (m *Message) Validate() error {
	if m.Name == "" || m.Email == "" || m.Subject == "" || m.Message == "" {
		return errors.New(errors.ErrorTypeInvalidInput, "All fields are required.")
	}
	return nil
}

// Mailer sends contact messages through a configured SMTP relay
type Mailer struct {
	cfg    config.SMTPConfig
	logger logger.Logger
}

// New creates a Mailer from SMTP settings
func New(cfg config.SMTPConfig, log logger.Logger) *Mailer {
	if log == nil {
		log = logger.GetLogger()
	}
	return &Mailer{cfg: cfg, logger: log}
}

// Send delivers the message to the configured support address. The visitor's
// address goes into Reply-To so support can answer directly.
func (m *Mailer) Send(msg *Message) error {
	if err := msg.Validate(); err != nil {
		return err
	}
	if m.cfg.Host == "" || m.cfg.User == "" || m.cfg.To == "" {
		return errors.New(errors.ErrorTypeUnknown, "SMTP is not configured")
	}

	body := BuildMessage(m.cfg.User, m.cfg.To, msg)
	addr := fmt.Sprintf("%s:%d", m.cfg.Host, m.cfg.Port)
	auth := smtp.PlainAuth("", m.cfg.User, m.cfg.Pass, m.cfg.Host)

	var err error
	if m.cfg.Port == 465 {
		err = m.sendImplicitTLS(addr, auth, body)
	} else {
		err = smtp.SendMail(addr, auth, m.cfg.User, []string{m.cfg.To}, body)
	}
	if err != nil {
		m.logger.ErrorWithFields("failed to send contact mail", map[string]interface{}{
			"host":  m.cfg.Host,
			"error": err.Error(),
		})
		return errors.Newf(errors.ErrorTypeUnknown, "failed to send mail: %v", err)
	}

	m.logger.InfoWithFields("contact mail sent", map[string]interface{}{
		"to": m.cfg.To,
	})
	return nil
}

// sendImplicitTLS handles SMTPS (port 465), which net/smtp.SendMail does not
func (m *Mailer) sendImplicitTLS(addr string, auth smtp.Auth, body []byte) error {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return err
	}

	conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: host})
	if err != nil {
		return err
	}

	client, err := smtp.NewClient(conn, host)
	if err != nil {
		conn.Close()
		return err
	}
	defer client.Close()

	if err := client.Auth(auth); err != nil {
		return err
	}
	if err := client.Mail(m.cfg.User); err != nil {
		return err
	}
	if err := client.Rcpt(m.cfg.To); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(body); err != nil {
		return err
	}
	if err := w.Close(); err != nil {
		return err
	}

	return client.Quit()
}

// BuildMessage renders the RFC 5322 message for a contact submission
func BuildMessage(from, to string, msg *Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: Website Contact <%s>\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", to)
	fmt.Fprintf(&b, "Reply-To: %s\r\n", msg.Email)
	fmt.Fprintf(&b, "Subject: [Contact Form] %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=UTF-8\r\n")
	b.WriteString("\r\n")
	fmt.Fprintf(&b, "Name: %s\r\nEmail: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		msg.Name, msg.Email, msg.Subject, msg.Message)
	return []byte(b.String())
}
