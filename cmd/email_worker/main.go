package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/oksasatya/skyport/config"
	"github.com/oksasatya/skyport/pkg/helpers"
	"github.com/oksasatya/skyport/pkg/mailer"
	mailtpl "github.com/oksasatya/skyport/pkg/mailer/templates"
)

// errDrop marks messages that can never be delivered and must not be requeued.
var errDrop = errors.New("undeliverable message")

type sendFunc func(ctx context.Context, to, subject, text, html string) error

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	if !cfg.MailSendEnabled {
		logger.Info("MAIL_SEND_ENABLED=false; email worker disabled (no real emails will be sent)")
		return
	}
	if cfg.RabbitMQURL == "" || cfg.RabbitMQEmailQueue == "" {
		log.Fatal("RabbitMQ not configured")
	}
	if !cfg.MailgunConfigured() {
		log.Fatal("Mailgun not configured")
	}

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		log.Fatalf("amqp dial: %v", err)
	}
	defer func() { _ = conn.Close() }()

	ch, err := conn.Channel()
	if err != nil {
		log.Fatalf("amqp channel: %v", err)
	}
	defer func() { _ = ch.Close() }()

	// prefetch for fair dispatch between workers
	if err := ch.Qos(16, 0, false); err != nil {
		log.Fatalf("qos: %v", err)
	}
	if err := helpers.DeclareQueue(ch, cfg.RabbitMQEmailQueue); err != nil {
		log.Fatalf("queue declare: %v", err)
	}

	msgs, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, mailer.SenderAddress(cfg.MailSenderName, cfg.MailgunSender), cfg.MailgunRegion)
	ctx := context.Background()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	done := make(chan struct{})

	go func() {
		for msg := range msgs {
			c, cancel := context.WithTimeout(ctx, 15*time.Second)
			err := process(c, msg.Body, mg.Send)
			cancel()
			switch {
			case err == nil:
				_ = msg.Ack(false)
			case errors.Is(err, errDrop):
				logger.WithError(err).Error("dropping email job")
				_ = msg.Nack(false, false)
			case msg.Redelivered:
				// one retry only, a failing provider must not spin the queue
				logger.WithError(err).Error("send failed twice, dropping email job")
				_ = msg.Nack(false, false)
			default:
				logger.WithError(err).Warn("send failed, requeueing email job")
				_ = msg.Nack(false, true)
			}
		}
		close(done)
	}()

	logger.WithFields(logrus.Fields{"queue": cfg.RabbitMQEmailQueue}).Info("email worker listening")
	<-stop
	logger.Info("shutting down...")
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}

// process decodes one queued job, renders it when it names a template and
// sends it.
func process(ctx context.Context, body []byte, send sendFunc) error {
	var job mailer.EmailJob
	if err := json.Unmarshal(body, &job); err != nil {
		return fmt.Errorf("%w: decode: %v", errDrop, err)
	}
	job.Normalize()
	if !job.Valid() {
		return fmt.Errorf("%w: missing recipient or content", errDrop)
	}

	subject, text, html := job.Subject, job.Text, job.HTML
	if job.Template != "" {
		s, t, h, err := mailtpl.Render(job.Template, job.Data)
		if err != nil {
			return fmt.Errorf("%w: render %s: %v", errDrop, job.Template, err)
		}
		subject, text, html = s, t, h
	}
	return send(ctx, job.To, subject, text, html)
}
