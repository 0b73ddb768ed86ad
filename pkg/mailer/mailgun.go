package mailer

import (
	"context"
	"fmt"
	"strings"
	"time"

	mg "github.com/mailgun/mailgun-go/v4"
)

const defaultSendTimeout = 10 * time.Second

// Mailgun sends rendered emails through the Mailgun HTTP API.
type Mailgun struct {
	Domain  string
	Sender  string
	Timeout time.Duration
	client  *mg.MailgunImpl
}

// NewMailgun builds a client for domain. region "eu" targets the EU API;
// anything else uses the default US endpoint.
func NewMailgun(domain, apiKey, sender, region string) *Mailgun {
	client := mg.NewMailgun(domain, apiKey)
	if strings.EqualFold(region, "eu") {
		client.SetAPIBase(mg.APIBaseEU)
	}
	return &Mailgun{Domain: domain, Sender: sender, Timeout: defaultSendTimeout, client: client}
}

// Send delivers one message. html is optional.
func (m *Mailgun) Send(ctx context.Context, to, subject, text, html string) error {
	msg := m.client.NewMessage(m.Sender, subject, text, to)
	if html != "" {
		msg.SetHtml(html)
	}
	timeout := m.Timeout
	if timeout <= 0 {
		timeout = defaultSendTimeout
	}
	c, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if _, _, err := m.client.Send(c, msg); err != nil {
		return fmt.Errorf("mailgun send to %s: %w", to, err)
	}
	return nil
}
