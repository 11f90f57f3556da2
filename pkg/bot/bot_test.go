package bot

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	tele "gopkg.in/telebot.v3"

	"fahrerexpress/pkg/logger"
	"fahrerexpress/pkg/models"
)

type fakeSender struct {
	sent   map[string]string
	failOn string
}

func (f *fakeSender) Send(to tele.Recipient, what interface{}, opts ...interface{}) (*tele.Message, error) {
	if to.Recipient() == f.failOn {
		return nil, errors.New("bot was blocked by the user")
	}
	f.sent[to.Recipient()] = what.(string)
	return &tele.Message{}, nil
}

func chat(id int64) *int64 { return &id }

func TestBroadcastJob(t *testing.T) {
	fs := &fakeSender{sent: map[string]string{}, failOn: "300"}
	b := &DriverBot{bot: fs, log: logger.NewNop()}

	start := time.Date(2026, 11, 2, 0, 0, 0, 0, time.UTC)
	job := &models.JobRequest{ID: "j1", Einsatzort: "Köln <Porz>", StartDate: &start, VehicleType: "7,5t LKW", LicenseClass: "C1"}
	drivers := []*models.DriverProfile{
		{ID: "d1", TelegramChatID: chat(100)},
		{ID: "d2"},
		{ID: "d3", TelegramChatID: chat(300)},
	}

	err := b.BroadcastJob(context.Background(), job, drivers)
	if err == nil || !strings.Contains(err.Error(), "d3") {
		t.Fatalf("expected error naming d3, got %v", err)
	}
	if len(fs.sent) != 1 {
		t.Fatalf("expected one delivered message, got %d", len(fs.sent))
	}
	msg := fs.sent["100"]
	if !strings.Contains(msg, "Köln &lt;Porz&gt;") || !strings.Contains(msg, "02.11.2026") || !strings.Contains(msg, "C1") {
		t.Fatalf("unexpected message %q", msg)
	}
}

func TestNewWorksOffline(t *testing.T) {
	b, err := New("123456:test-token", logger.NewNop())
	if err != nil {
		t.Fatalf("offline construction must not reach telegram: %v", err)
	}
	tb, ok := b.bot.(*tele.Bot)
	if !ok {
		t.Fatalf("expected *tele.Bot, got %T", b.bot)
	}
	if p, ok := tb.Poller.(*tele.LongPoller); !ok || p.Timeout != 10*time.Second {
		t.Fatalf("unexpected poller %#v", tb.Poller)
	}
}
