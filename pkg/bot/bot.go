package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tele "gopkg.in/telebot.v3"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
)

// sender is the part of *tele.Bot the broadcaster needs.
type sender interface {
	Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error)
}

// DriverBot posts new job requests to drivers who linked a Telegram chat.
type DriverBot struct {
	bot sender
	log logger.ILogger
}

func New(token string, log logger.ILogger) (*DriverBot, error) {
	b, err := tele.NewBot(tele.Settings{
		Token:   token,
		Poller:  &tele.LongPoller{Timeout: 10 * time.Second},
		Offline: true,
	})
	if err != nil {
		return nil, err
	}
	return &DriverBot{bot: b, log: log}, nil
}

func (b *DriverBot) BroadcastJob(ctx context.Context, job *models.JobRequest, drivers []*models.DriverProfile) error {
	text := jobMessage(job)

	var errs []error
	sent := 0
	for _, d := range drivers {
		if ctx.Err() != nil {
			errs = append(errs, ctx.Err())
			break
		}
		if d.TelegramChatID == nil {
			continue
		}
		if _, err := b.bot.Send(tele.ChatID(*d.TelegramChatID), text, tele.ModeHTML); err != nil {
			b.log.Warning("telegram broadcast failed", logger.String("driver_id", d.ID), logger.Error(err))
			errs = append(errs, fmt.Errorf("driver %s: %w", d.ID, err))
			continue
		}
		sent++
	}

	b.log.Info("job broadcast via telegram", logger.String("job_id", job.ID), logger.Int("sent", sent))
	return errors.Join(errs...)
}

func jobMessage(job *models.JobRequest) string {
	var sb strings.Builder
	sb.WriteString("🔔 <b>Neuer Einsatz</b>\n")
	fmt.Fprintf(&sb, "📍 %s\n", escape(job.Einsatzort))
	if job.StartDate != nil {
		period := job.StartDate.Format("02.01.2006")
		if job.EndDate != nil {
			period += " – " + job.EndDate.Format("02.01.2006")
		}
		fmt.Fprintf(&sb, "📅 %s\n", period)
	}
	if job.TimeWindow != "" {
		fmt.Fprintf(&sb, "🕒 %s\n", escape(job.TimeWindow))
	}
	if job.VehicleType != "" {
		fmt.Fprintf(&sb, "🚚 %s\n", escape(job.VehicleType))
	}
	if job.LicenseClass != "" {
		fmt.Fprintf(&sb, "🪪 Klasse %s\n", escape(job.LicenseClass))
	}
	return sb.String()
}

var htmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

func escape(s string) string {
	return htmlEscaper.Replace(s)
}
