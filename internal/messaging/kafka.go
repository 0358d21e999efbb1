package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/pkg/models"
)

const (
	ComparisonCompletedEvent = "comparison.completed"
	DefaultComparisonTopic   = "procurement.comparisons"
	ConsumerGroup            = "purchase-order-prefill"
	maxRetries               = 3
)

// ComparisonEvent announces a finished comparison to downstream consumers.
type ComparisonEvent struct {
	Type         string    `json:"type"`
	ComparisonID uuid.UUID `json:"comparisonId"`
	Material     string    `json:"material"`
	Quantity     float64   `json:"quantity"`
	Profile      string    `json:"profile"`
	VendorCount  int       `json:"vendorCount"`
	TopVendor    TopVendor `json:"topVendor"`
	Timestamp    time.Time `json:"timestamp"`
	RetryCount   int       `json:"retryCount,omitempty"`
}

type TopVendor struct {
	Name       string  `json:"name"`
	UnitPrice  float64 `json:"unitPrice"`
	TotalCost  float64 `json:"totalCost"`
	TotalScore float64 `json:"totalScore"`
}

// NewComparisonEvent builds the event for a stored or freshly computed result.
func NewComparisonEvent(id uuid.UUID, req models.Requirements, result *models.ComparisonResult, at time.Time) ComparisonEvent {
	top := result.TopVendor
	return ComparisonEvent{
		Type:         ComparisonCompletedEvent,
		ComparisonID: id,
		Material:     req.Material,
		Quantity:     req.Quantity,
		Profile:      result.Profile,
		VendorCount:  len(result.Vendors),
		TopVendor: TopVendor{
			Name:       top.Name,
			UnitPrice:  top.UnitPrice,
			TotalCost:  top.TotalCost,
			TotalScore: top.TotalScore,
		},
		Timestamp: at,
	}
}

// messageWriter is the subset of *kafka.Writer the bus uses.
type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

type messageReader interface {
	ReadMessage(ctx context.Context) (kafka.Message, error)
	Stats() kafka.ReaderStats
	Close() error
}

type MessageBus struct {
	topic     string
	writer    messageWriter
	dlqWriter messageWriter
	reader    messageReader
	logger    *logrus.Logger
}

func NewMessageBus(cfg *config.Config, logger *logrus.Logger) *MessageBus {
	topic := cfg.Kafka.Topics.Comparisons
	if topic == "" {
		topic = DefaultComparisonTopic
	}

	return &MessageBus{
		topic: topic,
		writer: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        topic,
			Balancer:     &kafka.Hash{}, // Key by material so one material stays ordered
			RequiredAcks: kafka.RequireOne,
			Async:        false,
			BatchTimeout: 10 * time.Millisecond,
			BatchSize:    100,
		},
		dlqWriter: &kafka.Writer{
			Addr:         kafka.TCP(cfg.Kafka.Brokers...),
			Topic:        topic + "-dlq",
			RequiredAcks: kafka.RequireOne,
			Async:        false,
		},
		logger: logger,
	}
}

// WithConsumer attaches a consumer group reader for the comparison topic.
func (mb *MessageBus) WithConsumer(brokers []string, groupID string) *MessageBus {
	if groupID == "" {
		groupID = ConsumerGroup
	}
	mb.reader = kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          mb.topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6, // 10MB
		CommitInterval: time.Second,
		StartOffset:    kafka.LastOffset,
	})
	return mb
}

func (mb *MessageBus) Topic() string {
	return mb.topic
}

func (mb *MessageBus) PublishComparison(ctx context.Context, event ComparisonEvent) error {
	messageBytes, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(event.Material),
		Value: messageBytes,
		Headers: []kafka.Header{
			{Key: "event_type", Value: []byte(event.Type)},
			{Key: "comparison_id", Value: []byte(event.ComparisonID.String())},
			{Key: "timestamp", Value: []byte(event.Timestamp.Format(time.RFC3339))},
		},
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := mb.writer.WriteMessages(ctx, kafkaMessage); err != nil {
		mb.logger.WithError(err).WithField("comparison_id", event.ComparisonID).Error("Failed to publish message to Kafka")
		return fmt.Errorf("failed to write message to Kafka: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"comparison_id": event.ComparisonID,
		"material":      event.Material,
		"topic":         mb.topic,
	}).Info("Comparison event published")

	return nil
}

// ConsumeComparisons reads events until ctx is done. Handler failures are
// retried with exponential backoff, then sent to the dead letter topic.
func (mb *MessageBus) ConsumeComparisons(ctx context.Context, handler func(ComparisonEvent) error) error {
	if mb.reader == nil {
		return errors.New("message bus has no consumer")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
			message, err := mb.reader.ReadMessage(ctx)
			if err != nil {
				if ctx.Err() != nil {
					return ctx.Err()
				}
				mb.logger.WithError(err).Error("Failed to read message from Kafka")
				continue
			}

			var event ComparisonEvent
			if err := json.Unmarshal(message.Value, &event); err != nil {
				mb.logger.WithError(err).Error("Failed to unmarshal Kafka message")
				continue
			}

			if err := mb.processWithRetry(ctx, event, handler, time.Second); err != nil {
				mb.logger.WithError(err).WithField("comparison_id", event.ComparisonID).Error("Failed to process message after retries")

				if dlqErr := mb.sendToDLQ(ctx, event, err); dlqErr != nil {
					mb.logger.WithError(dlqErr).Error("Failed to send message to DLQ")
				}
			}
		}
	}
}

func (mb *MessageBus) processWithRetry(ctx context.Context, event ComparisonEvent, handler func(ComparisonEvent) error, baseDelay time.Duration) error {
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			// Exponential backoff
			delay := baseDelay * time.Duration(1<<uint(attempt-1))
			mb.logger.WithFields(logrus.Fields{
				"comparison_id": event.ComparisonID,
				"attempt":       attempt,
				"delay":         delay,
			}).Info("Retrying message processing")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
		}

		event.RetryCount = attempt
		if err := handler(event); err != nil {
			mb.logger.WithError(err).WithFields(logrus.Fields{
				"comparison_id": event.ComparisonID,
				"attempt":       attempt,
			}).Warn("Message processing failed")

			if attempt == maxRetries {
				return fmt.Errorf("max retries exceeded: %w", err)
			}
			continue
		}

		return nil
	}

	return fmt.Errorf("unexpected retry loop exit")
}

func (mb *MessageBus) sendToDLQ(ctx context.Context, event ComparisonEvent, originalError error) error {
	dlqMessage := map[string]interface{}{
		"original_message": event,
		"error":            originalError.Error(),
		"dlq_timestamp":    time.Now(),
	}

	dlqBytes, err := json.Marshal(dlqMessage)
	if err != nil {
		return fmt.Errorf("failed to marshal DLQ message: %w", err)
	}

	kafkaMessage := kafka.Message{
		Key:   []byte(event.ComparisonID.String()),
		Value: dlqBytes,
		Headers: []kafka.Header{
			{Key: "comparison_id", Value: []byte(event.ComparisonID.String())},
			{Key: "original_topic", Value: []byte(mb.topic)},
			{Key: "error", Value: []byte(originalError.Error())},
		},
	}

	if err := mb.dlqWriter.WriteMessages(ctx, kafkaMessage); err != nil {
		return fmt.Errorf("failed to write message to DLQ: %w", err)
	}

	mb.logger.WithFields(logrus.Fields{
		"comparison_id": event.ComparisonID,
		"error":         originalError.Error(),
	}).Warn("Message sent to DLQ")

	return nil
}

func (mb *MessageBus) Close() error {
	var errs []error

	if err := mb.writer.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close producer: %w", err))
	}

	if mb.reader != nil {
		if err := mb.reader.Close(); err != nil {
			errs = append(errs, fmt.Errorf("failed to close consumer: %w", err))
		}
	}

	if err := mb.dlqWriter.Close(); err != nil {
		errs = append(errs, fmt.Errorf("failed to close DLQ writer: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("errors closing message bus: %w", errors.Join(errs...))
	}

	return nil
}

// GetMetrics returns consumer statistics for monitoring.
func (mb *MessageBus) GetMetrics() map[string]interface{} {
	if mb.reader == nil {
		return map[string]interface{}{}
	}
	stats := mb.reader.Stats()
	return map[string]interface{}{
		"consumer_lag":    stats.Lag,
		"consumer_offset": stats.Offset,
		"messages_read":   stats.Messages,
		"bytes_read":      stats.Bytes,
		"rebalances":      stats.Rebalances,
		"timeouts":        stats.Timeouts,
		"errors":          stats.Errors,
	}
}
