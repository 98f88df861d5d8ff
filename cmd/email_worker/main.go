package main

import (
	"context"
	"encoding/json"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sirupsen/logrus"

	"github.com/warungmbahmanto/backend-api/config"
	"github.com/warungmbahmanto/backend-api/pkg/helpers"
	"github.com/warungmbahmanto/backend-api/pkg/mailer"
	"github.com/warungmbahmanto/backend-api/pkg/mailer/templates"
)

// The worker drains the email queue: it renders templated jobs and delivers
// them through Mailgun. Delivery is at-least-once; transient failures are
// requeued, malformed jobs are dropped.
func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	logger := helpers.NewLogger(cfg.AppName+"-email-worker", cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	conn, err := amqp.Dial(cfg.RabbitMQURL)
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq dial failed")
	}
	defer conn.Close()

	ch, err := conn.Channel()
	if err != nil {
		logger.WithError(err).Fatal("rabbitmq channel failed")
	}
	defer ch.Close()

	if _, err := ch.QueueDeclare(cfg.RabbitMQEmailQueue, true, false, false, false, nil); err != nil {
		logger.WithError(err).Fatal("queue declare failed")
	}
	if err := ch.Qos(5, 0, false); err != nil {
		logger.WithError(err).Fatal("qos failed")
	}

	deliveries, err := ch.Consume(cfg.RabbitMQEmailQueue, "", false, false, false, false, nil)
	if err != nil {
		logger.WithError(err).Fatal("consume failed")
	}

	mg := mailer.NewMailgun(cfg.MailgunDomain, cfg.MailgunAPIKey, cfg.MailgunSender)
	logger.WithField("queue", cfg.RabbitMQEmailQueue).Info("email worker started")

	for {
		select {
		case <-ctx.Done():
			logger.Info("email worker stopping")
			return
		case d, ok := <-deliveries:
			if !ok {
				logger.Error("delivery channel closed")
				return
			}
			handle(ctx, logger, mg, cfg.MailSendEnabled, d)
		}
	}
}

func handle(ctx context.Context, logger *logrus.Logger, mg *mailer.Mailgun, sendEnabled bool, d amqp.Delivery) {
	var job mailer.EmailJob
	if err := json.Unmarshal(d.Body, &job); err != nil {
		logger.WithError(err).Error("malformed email job dropped")
		_ = d.Nack(false, false)
		return
	}

	subject, text, html, err := renderJob(job)
	if err != nil {
		logger.WithError(err).WithField("template", job.Template).Error("email render failed, job dropped")
		_ = d.Nack(false, false)
		return
	}

	if !sendEnabled {
		logger.WithField("to", job.To).Info("mail sending disabled, job acked")
		_ = d.Ack(false)
		return
	}

	if err := mg.Send(ctx, job.To, subject, text, html); err != nil {
		logger.WithError(err).WithField("to", job.To).Warn("email send failed, requeued")
		_ = d.Nack(false, true)
		// avoid hammering the provider on a persistent outage
		time.Sleep(2 * time.Second)
		return
	}
	logger.WithField("to", job.To).Info("email sent")
	_ = d.Ack(false)
}

// renderJob resolves the final subject and bodies: explicit fields win,
// otherwise the named template is rendered with the job data.
func renderJob(job mailer.EmailJob) (subject, text, html string, err error) {
	subject, text, html = job.Subject, job.Text, job.HTML
	if job.Template == "" {
		return subject, text, html, nil
	}

	if html == "" {
		html, err = templates.RenderHTML(job.Template, job.Data)
		if err != nil {
			return "", "", "", err
		}
	}
	if text == "" {
		text, err = templates.RenderText(job.Template, job.Data)
		if err != nil {
			return "", "", "", err
		}
	}
	if subject == "" {
		purpose, _ := job.Data["Purpose"].(string)
		subject = mailer.SubjectFor(purpose)
	}
	return subject, text, html, nil
}
