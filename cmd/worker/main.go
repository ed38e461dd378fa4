package main

import (
	"context"
	"log"
	"time"

	"github.com/fatih/color"

	"insurance-intake-be/internal/config"
	"insurance-intake-be/internal/pkg/mailer"
	"insurance-intake-be/pkg/events"
	pktNats "insurance-intake-be/pkg/nats"
)

// Escalation alert worker. Runs beside the REST process and emails the
// on-call operator for every session that gets handed over. Uses its
// own durable consumer so alerts survive worker restarts.
func main() {
	cfg := config.Load()

	emailService := mailer.NewEmailService(
		cfg.SMTP.Host,
		cfg.SMTP.Port,
		cfg.SMTP.Email,
		cfg.SMTP.Password,
		cfg.SMTP.Email,
		cfg.SMTP.SenderName,
	)

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	subject := "events." + events.SessionEscalatedType
	err = sub.Subscribe(subject, "escalation-alert-worker", func(ctx context.Context, event events.Event) error {
		payload := event.Payload()
		threadID, _ := payload["thread_id"].(string)
		reason, _ := payload["reason"].(string)

		at := time.Now()
		if raw, ok := payload["at"].(string); ok {
			if parsed, err := time.Parse(time.RFC3339, raw); err == nil {
				at = parsed
			}
		}

		color.Yellow("⚠ Escalation: thread=%s reason=%q", threadID, reason)

		if cfg.SMTP.OperatorEmail == "" {
			color.Red("OPERATOR_ALERT_EMAIL not set, alert logged only")
			return nil
		}

		if err := emailService.SendEscalationAlert(cfg.SMTP.OperatorEmail, threadID, reason, at); err != nil {
			color.Red("Failed to send alert email: %v", err)
			// Returning the error makes NATS redeliver the event.
			return err
		}

		color.Green("✔ Alert emailed to %s", cfg.SMTP.OperatorEmail)
		return nil
	})
	if err != nil {
		log.Fatalf("Failed to subscribe: %v", err)
	}

	color.Cyan("Escalation alert worker listening on %s", subject)
	select {}
}
