package mailer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/pkg/mailer/templates"
)

var ErrMailDisabled = errors.New("mail delivery disabled")

// Publisher is the part of helpers.RabbitPublisher the queue notifier needs.
type Publisher interface {
	PublishJSON(ctx context.Context, body any) error
}

// QueueNotifier hands confirmation emails to the email worker over RabbitMQ.
type QueueNotifier struct {
	Pub Publisher
	Cfg *config.Config
}

func NewQueueNotifier(pub Publisher, cfg *config.Config) *QueueNotifier {
	return &QueueNotifier{Pub: pub, Cfg: cfg}
}

func (n *QueueNotifier) SendConfirmation(ctx context.Context, to, link string) error {
	job := ConfirmationJob(n.Cfg, to, link)
	if err := n.Pub.PublishJSON(ctx, job); err != nil {
		return fmt.Errorf("publish email job: %w", err)
	}
	return nil
}

// MailgunNotifier renders and sends the confirmation email in-process.
type MailgunNotifier struct {
	Client *Mailgun
	Cfg    *config.Config
}

func NewMailgunNotifier(client *Mailgun, cfg *config.Config) *MailgunNotifier {
	return &MailgunNotifier{Client: client, Cfg: cfg}
}

func (n *MailgunNotifier) SendConfirmation(ctx context.Context, to, link string) error {
	job := ConfirmationJob(n.Cfg, to, link)
	subject, text, html, err := templates.Render(job.Template, job.Data)
	if err != nil {
		return err
	}
	return n.Client.Send(ctx, to, subject, text, html)
}

// LogNotifier logs the confirmation link instead of sending it. When Fail is
// set it reports ErrMailDisabled so callers surface the email as unsent.
type LogNotifier struct {
	Logger *logrus.Logger
	Fail   bool
}

func (n *LogNotifier) SendConfirmation(_ context.Context, to, link string) error {
	n.Logger.WithFields(logrus.Fields{"to": to, "link": link}).Info("confirmation email (not sent)")
	if n.Fail {
		return ErrMailDisabled
	}
	return nil
}

// ConfirmationJob builds the queue payload for a confirmation email.
func ConfirmationJob(cfg *config.Config, to, link string) EmailJob {
	data := templates.NewConfirmEmailData(cfg, to, link, templates.WithExpiresIn(cfg.ConfirmTokenTTL))
	return EmailJob{To: to, Template: templates.ConfirmEmail, Data: data}
}

// SenderAddress formats the From header as "Name <address>".
func SenderAddress(name, address string) string {
	name = strings.TrimSpace(name)
	if name == "" || strings.Contains(address, "<") {
		return address
	}
	return fmt.Sprintf("%s <%s>", name, address)
}
