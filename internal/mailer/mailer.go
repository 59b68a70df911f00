// Package mailer renders and delivers the transactional emails of the account
// flows.
package mailer

import (
	"bytes"
	"context"
	"fmt"
	"net/smtp"
	"strings"
	"text/template"

	"github.com/sirupsen/logrus"
)

type Message struct {
	To      string
	Subject string
	Body    string
}

// Mailer delivers a single message.
type Mailer interface {
	Send(ctx context.Context, msg Message) error
}

// LogMailer writes messages to the log instead of sending them. It is used
// when no SMTP server is configured.
type LogMailer struct {
	Log logrus.FieldLogger
}

func (m *LogMailer) Send(_ context.Context, msg Message) error {
	m.Log.WithFields(logrus.Fields{
		"to":      msg.To,
		"subject": msg.Subject,
	}).Info(msg.Body)
	return nil
}

type SMTPMailer struct {
	Addr     string
	From     string
	Username string
	Password string

	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

func NewSMTPMailer(addr, from, username, password string) *SMTPMailer {
	return &SMTPMailer{
		Addr:     addr,
		From:     from,
		Username: username,
		Password: password,
		send:     smtp.SendMail,
	}
}

func (m *SMTPMailer) Send(ctx context.Context, msg Message) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	var auth smtp.Auth
	if m.Username != "" {
		host, _, _ := strings.Cut(m.Addr, ":")
		auth = smtp.PlainAuth("", m.Username, m.Password, host)
	}
	if err := m.send(m.Addr, auth, m.From, []string{msg.To}, m.encode(msg)); err != nil {
		return fmt.Errorf("smtp send: %w", err)
	}
	return nil
}

func (m *SMTPMailer) encode(msg Message) []byte {
	var b bytes.Buffer
	fmt.Fprintf(&b, "From: %s\r\n", m.From)
	fmt.Fprintf(&b, "To: %s\r\n", msg.To)
	fmt.Fprintf(&b, "Subject: %s\r\n", msg.Subject)
	b.WriteString("MIME-Version: 1.0\r\n")
	b.WriteString("Content-Type: text/plain; charset=\"utf-8\"\r\n\r\n")
	b.WriteString(strings.ReplaceAll(msg.Body, "\n", "\r\n"))
	return b.Bytes()
}

var (
	resetTmpl = template.Must(template.New("reset").Parse(`Hello {{.FullName}},

We received a request to reset the password of your account.
Use the link below to choose a new one:

{{.Link}}

If you did not ask for this, you can ignore this email.
`))

	verifyTmpl = template.Must(template.New("verify").Parse(`Hello {{.FullName}},

Please confirm your email address by opening the link below:

{{.Link}}
`))
)

type linkData struct {
	FullName string
	Link     string
}

// PasswordReset builds the reset password email.
func PasswordReset(to, fullName, link string) (Message, error) {
	return render(resetTmpl, to, "Reset your password", linkData{FullName: fullName, Link: link})
}

// Verification builds the email address confirmation email.
func Verification(to, fullName, link string) (Message, error) {
	return render(verifyTmpl, to, "Confirm your email address", linkData{FullName: fullName, Link: link})
}

func render(t *template.Template, to, subject string, data linkData) (Message, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return Message{}, fmt.Errorf("render %s: %w", t.Name(), err)
	}
	return Message{To: to, Subject: subject, Body: buf.String()}, nil
}
