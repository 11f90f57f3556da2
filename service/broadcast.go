package service

import (
	"context"
	"errors"

	"fahrerexpress/pkg/models"
)

// Broadcaster fans a new job out to drivers. Implementations live in
// pkg/bot (Telegram) and pkg/events (Kafka).
type Broadcaster interface {
	BroadcastJob(ctx context.Context, job *models.JobRequest, drivers []*models.DriverProfile) error
}

// MultiBroadcaster calls every broadcaster and joins their errors.
type MultiBroadcaster []Broadcaster

func (m MultiBroadcaster) BroadcastJob(ctx context.Context, job *models.JobRequest, drivers []*models.DriverProfile) error {
	var errs []error
	for _, b := range m {
		if err := b.BroadcastJob(ctx, job, drivers); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
