// Package events emits donation lifecycle events to Kafka. Emission happens
// after the recording transaction commits and is fire-and-forget; downstream
// consumers (notification jobs, reporting) must tolerate at-most-once
// delivery around crashes.
package events

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/twmb/franz-go/pkg/kadm"
	"github.com/twmb/franz-go/pkg/kerr"
	"github.com/twmb/franz-go/pkg/kgo"

	"lifelink/internal/donation/models"
)

// TopicDonationRecorded carries one message per committed donation.
const TopicDonationRecorded = "lifelink.donation.recorded"

// DonationRecordedEvent is the JSON payload on the wire.
type DonationRecordedEvent struct {
	DonationID  string    `json:"donationId"`
	DonorID     string    `json:"donorId"`
	BloodBankID string    `json:"bloodBankId"`
	BloodType   string    `json:"bloodType"`
	Units       int       `json:"units"`
	RecordedAt  time.Time `json:"recordedAt"`
}

// Publisher produces donation events.
type Publisher struct {
	client *kgo.Client
	logger *slog.Logger
}

// NewPublisher connects to the brokers and ensures the topic exists. An empty
// broker list returns a nil Publisher, meaning events are not configured.
func NewPublisher(ctx context.Context, brokers []string, logger *slog.Logger) (*Publisher, error) {
	if len(brokers) == 0 {
		return nil, nil
	}

	client, err := kgo.NewClient(
		kgo.SeedBrokers(brokers...),
		kgo.ProducerBatchCompression(kgo.SnappyCompression()),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}

	if err := ensureTopic(ctx, client); err != nil {
		client.Close()
		return nil, err
	}

	return &Publisher{client: client, logger: logger}, nil
}

func ensureTopic(ctx context.Context, client *kgo.Client) error {
	admin := kadm.NewClient(client)
	resp, err := admin.CreateTopics(ctx, 3, 1, nil, TopicDonationRecorded)
	if err != nil {
		return fmt.Errorf("create topic %s: %w", TopicDonationRecorded, err)
	}
	for _, res := range resp {
		// TOPIC_ALREADY_EXISTS is the steady state on every boot after the
		// first.
		if res.Err != nil && !errors.Is(res.Err, kerr.TopicAlreadyExists) {
			return fmt.Errorf("create topic %s: %w", res.Topic, res.Err)
		}
	}
	return nil
}

// DonationRecorded produces one event, keyed by blood bank so per-bank
// ordering is preserved for consumers that care.
func (p *Publisher) DonationRecorded(ctx context.Context, donation models.Donation) error {
	event := DonationRecordedEvent{
		DonationID:  donation.ID.String(),
		DonorID:     donation.DonorID.String(),
		BloodBankID: donation.BloodBankID.String(),
		BloodType:   donation.BloodType.String(),
		Units:       donation.Units,
		RecordedAt:  donation.CreatedAt,
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal donation event: %w", err)
	}

	record := &kgo.Record{
		Topic: TopicDonationRecorded,
		Key:   []byte(event.BloodBankID),
		Value: payload,
	}
	p.client.Produce(ctx, record, func(r *kgo.Record, err error) {
		if err != nil {
			p.logger.Warn("donation event delivery failed",
				"donation_id", event.DonationID,
				"error", err.Error(),
			)
		}
	})
	return nil
}

// Close flushes pending records and releases the client.
func (p *Publisher) Close(ctx context.Context) {
	if err := p.client.Flush(ctx); err != nil {
		p.logger.Warn("kafka flush on shutdown failed", "error", err.Error())
	}
	p.client.Close()
}
