package events

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"

	"fahrerexpress/pkg/models"
)

const TypeJobCreated = "job.created"

type JobCreated struct {
	Type         string     `json:"type"`
	JobID        string     `json:"job_id"`
	Einsatzort   string     `json:"einsatzort"`
	StartDate    *time.Time `json:"start_date,omitempty"`
	EndDate      *time.Time `json:"end_date,omitempty"`
	VehicleType  string     `json:"vehicle_type"`
	LicenseClass string     `json:"license_class"`
	DriverIDs    []string   `json:"driver_ids"`
	OccurredAt   time.Time  `json:"occurred_at"`
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaPublisher emits job events for downstream consumers such as the CRM sync.
type KafkaPublisher struct {
	writer messageWriter
	now    func() time.Time
}

func NewKafkaPublisher(brokers []string, topic string) *KafkaPublisher {
	w := kafka.NewWriter(kafka.WriterConfig{Brokers: brokers, Topic: topic, Balancer: &kafka.LeastBytes{}})
	return &KafkaPublisher{writer: w, now: time.Now}
}

func (k *KafkaPublisher) BroadcastJob(ctx context.Context, job *models.JobRequest, drivers []*models.DriverProfile) error {
	ids := make([]string, 0, len(drivers))
	for _, d := range drivers {
		ids = append(ids, d.ID)
	}
	evt := JobCreated{
		Type:         TypeJobCreated,
		JobID:        job.ID,
		Einsatzort:   job.Einsatzort,
		StartDate:    job.StartDate,
		EndDate:      job.EndDate,
		VehicleType:  job.VehicleType,
		LicenseClass: job.LicenseClass,
		DriverIDs:    ids,
		OccurredAt:   k.now().UTC(),
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, kafka.Message{Key: []byte(job.ID), Value: b})
}

func (k *KafkaPublisher) Close() error {
	if k.writer == nil {
		return nil
	}
	return k.writer.Close()
}
