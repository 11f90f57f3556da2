package service

import (
	"context"
	"fmt"
	"time"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/mailer"
	"fahrerexpress/pkg/metrics"
	"fahrerexpress/pkg/models"
	"fahrerexpress/storage"
)

// notifier sends transactional email and records every attempt in the email
// log. Delivery failures are logged and never returned to the caller.
type notifier struct {
	mailer mailer.Mailer
	logs   storage.IEmailLogStorage
	log    logger.ILogger
}

func newNotifier(m mailer.Mailer, logs storage.IEmailLogStorage, log logger.ILogger) *notifier {
	return &notifier{mailer: m, logs: logs, log: log}
}

func (n *notifier) send(ctx context.Context, template, to string, vars map[string]any, jobID *string) bool {
	if to == "" {
		n.log.Warning("email skipped, no recipient", logger.String("template", template))
		return false
	}

	entry := &models.EmailLog{
		Recipient: to,
		Template:  template,
		JobID:     jobID,
	}

	msg, err := mailer.Render(template, to, vars)
	if err == nil {
		entry.Subject = msg.Subject
		var providerID string
		providerID, err = n.mailer.Send(ctx, msg)
		if providerID != "" {
			entry.ProviderID = &providerID
		}
	}

	entry.Status = models.EmailStatusSent
	if err != nil {
		entry.Status = models.EmailStatusFailed
		e := err.Error()
		entry.Error = &e
		n.log.Error("email delivery failed",
			logger.String("template", template),
			logger.String("to", to),
			logger.Error(err),
		)
	}
	metrics.EmailsSent.WithLabelValues(template, entry.Status).Inc()

	if logErr := n.logs.Create(ctx, entry); logErr != nil {
		n.log.Error("failed to record email log", logger.String("template", template), logger.Error(logErr))
	}
	return err == nil
}

func formatPeriod(start, end *time.Time) string {
	switch {
	case start == nil && end == nil:
		return "nach Absprache"
	case end == nil:
		return "ab " + start.Format("02.01.2006")
	case start == nil:
		return "bis " + end.Format("02.01.2006")
	default:
		return start.Format("02.01.2006") + " - " + end.Format("02.01.2006")
	}
}

func formatRate(rateType string, value float64) string {
	switch rateType {
	case models.RateTypeHourly:
		return fmt.Sprintf("%.2f € / Stunde", value)
	case models.RateTypeDaily:
		return fmt.Sprintf("%.2f € / Tag", value)
	default:
		return fmt.Sprintf("%.2f € pauschal", value)
	}
}
