// Package email implements an SMTP-based alert notifier
package email

import (
	"fmt"
	"net/smtp"
	"strings"

	"github.com/shopspring/decimal"

	"cryptoalert/internal/notifier"
)

// Email sends alert and operator-failure mail through an authenticated relay.
type Email struct {
	host         string
	port         int
	username     string
	password     string
	from         string
	operatorAddr string

	// send is swappable in tests; defaults to smtp.SendMail.
	send func(addr string, a smtp.Auth, from string, to []string, msg []byte) error
}

// Config holds the SMTP relay settings.
type Config struct {
	Host         string
	Port         int
	Username     string
	Password     string
	From         string
	OperatorAddr string
}

// New creates a new Email notifier
func New(cfg Config) (*Email, error) {
	if cfg.Host == "" || cfg.From == "" {
		return nil, fmt.Errorf("email: host and from are required")
	}
	return &Email{
		host:         cfg.Host,
		port:         cfg.Port,
		username:     cfg.Username,
		password:     cfg.Password,
		from:         cfg.From,
		operatorAddr: cfg.OperatorAddr,
		send:         smtp.SendMail,
	}, nil
}

func (e *Email) Name() string { return "email" }

// Send delivers one triggered-alert notification to the rule owner.
func (e *Email) Send(alert notifier.Alert) error {
	subject := fmt.Sprintf("[CryptoAlert] %s Price Alert", alert.Currency)

	body := fmt.Sprintf(`Hello!

Your cryptocurrency price alert has been triggered:

Currency: %s
Condition: Price %s $%s
Current Price: $%s

This is an automated notification. Please do not reply directly.

---
CryptoAlert Price Monitoring System`,
		alert.Currency,
		alert.Condition.Describe(),
		FormatUSD(alert.Threshold),
		FormatUSD(alert.Price),
	)

	return e.sendMail(alert.Recipient, subject, body)
}

// SendFailure reports a failed background task to the operator address. An
// unconfigured operator address is a no-op.
func (e *Email) SendFailure(taskName, message string) error {
	if e.operatorAddr == "" {
		return nil
	}

	subject := fmt.Sprintf("[CryptoAlert Alert] %s Failed", taskName)

	body := fmt.Sprintf(`Administrator,

A system background task has failed. Please investigate:

Task Name: %s
Error Message: %s

---
CryptoAlert System Alert`,
		taskName,
		message,
	)

	return e.sendMail(e.operatorAddr, subject, body)
}

func (e *Email) sendMail(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", e.host, e.port)

	var auth smtp.Auth
	if e.username != "" {
		auth = smtp.PlainAuth("", e.username, e.password, e.host)
	}

	msg := fmt.Sprintf("From: %s\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/plain; charset=UTF-8\r\n"+
		"\r\n"+
		"%s",
		e.from,
		to,
		subject,
		body,
	)

	return e.send(addr, auth, e.from, []string{to}, []byte(msg))
}

// FormatUSD renders an amount with thousands separators and two decimal
// places, matching the alert mail template.
func FormatUSD(amount decimal.Decimal) string {
	s := amount.StringFixed(2)

	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")

	intPart, fracPart, _ := strings.Cut(s, ".")
	var sb strings.Builder
	for i, digit := range intPart {
		if i > 0 && (len(intPart)-i)%3 == 0 {
			sb.WriteByte(',')
		}
		sb.WriteRune(digit)
	}

	out := sb.String() + "." + fracPart
	if neg {
		out = "-" + out
	}
	return out
}
