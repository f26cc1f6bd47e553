package notify

import (
	"context"
	"errors"
	"fmt"
	"net/smtp"
	"strings"
)

// MailChannel delivers rendered content to a list of recipients.
type MailChannel interface {
	Send(ctx context.Context, content string, recipients []string) error
}

// SMTPChannel sends mail through a plain SMTP relay.
type SMTPChannel struct {
	addr    string
	from    string
	subject string
	auth    smtp.Auth
	send    func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// SMTPOption configures the SMTP channel.
type SMTPOption func(*SMTPChannel)

// WithSMTPAuth sets SMTP authentication.
func WithSMTPAuth(auth smtp.Auth) SMTPOption {
	return func(ch *SMTPChannel) {
		ch.auth = auth
	}
}

// WithSubject overrides the default mail subject.
func WithSubject(subject string) SMTPOption {
	return func(ch *SMTPChannel) {
		if subject != "" {
			ch.subject = subject
		}
	}
}

// WithSendFunc overrides the SMTP send function. Used by tests.
func WithSendFunc(send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error) SMTPOption {
	return func(ch *SMTPChannel) {
		if send != nil {
			ch.send = send
		}
	}
}

// NewSMTPChannel constructs an SMTP channel.
func NewSMTPChannel(addr, from string, opts ...SMTPOption) (*SMTPChannel, error) {
	if addr == "" {
		return nil, errors.New("smtp channel: empty address")
	}
	if from == "" {
		return nil, errors.New("smtp channel: empty sender")
	}
	channel := &SMTPChannel{
		addr:    addr,
		from:    from,
		subject: "Seismograph out of service",
		send:    smtp.SendMail,
	}
	for _, opt := range opts {
		opt(channel)
	}
	return channel, nil
}

// Send mails the content to all recipients in one message.
func (ch *SMTPChannel) Send(ctx context.Context, content string, recipients []string) error {
	if ch == nil || ch.send == nil {
		return errors.New("smtp channel: nil")
	}
	if len(recipients) == 0 {
		return nil
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	msg := fmt.Sprintf("To: %s\r\nSubject: %s\r\n\r\n%s\r\n",
		strings.Join(recipients, ", "), ch.subject, content)
	return ch.send(ch.addr, ch.auth, ch.from, recipients, []byte(msg))
}
