package media

import (
	"context"
	"encoding/json"
	"time"

	"github.com/segmentio/kafka-go"
)

type EventAction string

const (
	EventIngested EventAction = "media.ingested"
	EventDeleted  EventAction = "media.deleted"
)

// MediaEvent notifies the email/notification pipeline about catalog changes.
type MediaEvent struct {
	AssetID   string      `json:"assetId"`
	Action    EventAction `json:"action"`
	Folder    string      `json:"folder"`
	MimeType  string      `json:"mimeType"`
	SizeBytes int64       `json:"sizeBytes"`
	Timestamp time.Time   `json:"timestamp"`
}

type EventProducer interface {
	SendMediaEvent(ctx context.Context, event MediaEvent) error
	Close() error
}

type kafkaProducer struct {
	writer *kafka.Writer
}

func NewKafkaProducer(brokers []string, topic string) EventProducer {
	writer := &kafka.Writer{
		Addr:     kafka.TCP(brokers...),
		Topic:    topic,
		Balancer: &kafka.LeastBytes{},
	}
	return &kafkaProducer{writer: writer}
}

func (p *kafkaProducer) SendMediaEvent(ctx context.Context, event MediaEvent) error {
	value, err := json.Marshal(event)
	if err != nil {
		return err
	}

	return p.writer.WriteMessages(ctx, kafka.Message{
		Key:   []byte(event.AssetID),
		Value: value,
		Time:  time.Now(),
	})
}

func (p *kafkaProducer) Close() error {
	return p.writer.Close()
}
