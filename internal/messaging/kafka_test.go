package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temcen/vendex/internal/config"
	"github.com/temcen/vendex/pkg/models"
)

type recordingWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	err      error
}

func (w *recordingWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.err != nil {
		return w.err
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *recordingWriter) Close() error { return nil }

func (w *recordingWriter) sent() []kafka.Message {
	w.mu.Lock()
	defer w.mu.Unlock()
	return append([]kafka.Message(nil), w.messages...)
}

// queueReader returns queued messages, then blocks until the context ends.
type queueReader struct {
	messages chan kafka.Message
}

func (r *queueReader) ReadMessage(ctx context.Context) (kafka.Message, error) {
	select {
	case m := <-r.messages:
		return m, nil
	case <-ctx.Done():
		return kafka.Message{}, ctx.Err()
	}
}

func (r *queueReader) Stats() kafka.ReaderStats {
	return kafka.ReaderStats{Messages: int64(len(r.messages))}
}
func (r *queueReader) Close() error { return nil }

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.ErrorLevel)
	return logger
}

func testBus() (*MessageBus, *recordingWriter, *recordingWriter) {
	writer := &recordingWriter{}
	dlq := &recordingWriter{}
	return &MessageBus{
		topic:     DefaultComparisonTopic,
		writer:    writer,
		dlqWriter: dlq,
		logger:    testLogger(),
	}, writer, dlq
}

func sampleEvent() ComparisonEvent {
	result := &models.ComparisonResult{
		Vendors: make([]models.VendorScoreResult, 3),
		TopVendor: models.VendorScoreResult{
			Name:       "Shree Cement Depot",
			UnitPrice:  380,
			TotalCost:  190000,
			TotalScore: 82.4,
		},
		Profile: "default",
	}
	req := models.Requirements{Material: "OPC 53 cement", Quantity: 500}
	return NewComparisonEvent(uuid.New(), req, result, time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC))
}

func TestNewMessageBus_TopicFromConfig(t *testing.T) {
	cfg := &config.Config{}
	cfg.Kafka.Brokers = []string{"localhost:9092"}

	bus := NewMessageBus(cfg, testLogger())
	assert.Equal(t, DefaultComparisonTopic, bus.Topic())

	cfg.Kafka.Topics.Comparisons = "site.comparisons"
	bus = NewMessageBus(cfg, testLogger())
	assert.Equal(t, "site.comparisons", bus.Topic())
}

func TestNewComparisonEvent(t *testing.T) {
	event := sampleEvent()

	assert.Equal(t, ComparisonCompletedEvent, event.Type)
	assert.Equal(t, "OPC 53 cement", event.Material)
	assert.Equal(t, 500.0, event.Quantity)
	assert.Equal(t, 3, event.VendorCount)
	assert.Equal(t, "Shree Cement Depot", event.TopVendor.Name)
	assert.Equal(t, 190000.0, event.TopVendor.TotalCost)
}

func TestMessageBus_PublishComparison(t *testing.T) {
	bus, writer, _ := testBus()
	event := sampleEvent()

	require.NoError(t, bus.PublishComparison(context.Background(), event))

	sent := writer.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []byte("OPC 53 cement"), sent[0].Key)

	headers := make(map[string]string)
	for _, h := range sent[0].Headers {
		headers[h.Key] = string(h.Value)
	}
	assert.Equal(t, ComparisonCompletedEvent, headers["event_type"])
	assert.Equal(t, event.ComparisonID.String(), headers["comparison_id"])

	var decoded ComparisonEvent
	require.NoError(t, json.Unmarshal(sent[0].Value, &decoded))
	assert.Equal(t, event.ComparisonID, decoded.ComparisonID)
	assert.Equal(t, event.TopVendor, decoded.TopVendor)
}

func TestMessageBus_PublishComparisonError(t *testing.T) {
	bus, writer, _ := testBus()
	writer.err = errors.New("broker unavailable")

	err := bus.PublishComparison(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker unavailable")
}

func TestMessageBus_ProcessWithRetry(t *testing.T) {
	bus, _, _ := testBus()

	t.Run("succeeds after transient failures", func(t *testing.T) {
		calls := 0
		err := bus.processWithRetry(context.Background(), sampleEvent(), func(e ComparisonEvent) error {
			calls++
			if calls < 3 {
				return errors.New("transient")
			}
			assert.Equal(t, 2, e.RetryCount)
			return nil
		}, time.Millisecond)

		require.NoError(t, err)
		assert.Equal(t, 3, calls)
	})

	t.Run("gives up after max retries", func(t *testing.T) {
		calls := 0
		err := bus.processWithRetry(context.Background(), sampleEvent(), func(ComparisonEvent) error {
			calls++
			return errors.New("permanent")
		}, time.Millisecond)

		require.Error(t, err)
		assert.Equal(t, maxRetries+1, calls)
	})
}

func TestMessageBus_ConsumeComparisons(t *testing.T) {
	bus, _, dlq := testBus()
	reader := &queueReader{messages: make(chan kafka.Message, 2)}
	bus.reader = reader

	good := sampleEvent()
	goodBytes, err := json.Marshal(good)
	require.NoError(t, err)
	reader.messages <- kafka.Message{Value: []byte("not json")}
	reader.messages <- kafka.Message{Value: goodBytes}

	ctx, cancel := context.WithCancel(context.Background())
	received := make(chan ComparisonEvent, 1)

	done := make(chan error, 1)
	go func() {
		done <- bus.ConsumeComparisons(ctx, func(e ComparisonEvent) error {
			received <- e
			return nil
		})
	}()

	select {
	case e := <-received:
		assert.Equal(t, good.ComparisonID, e.ComparisonID)
	case <-time.After(2 * time.Second):
		t.Fatal("event was not consumed")
	}

	cancel()
	assert.ErrorIs(t, <-done, context.Canceled)
	assert.Empty(t, dlq.sent())
}

func TestMessageBus_ConsumeWithoutReader(t *testing.T) {
	bus, _, _ := testBus()
	assert.Error(t, bus.ConsumeComparisons(context.Background(), func(ComparisonEvent) error { return nil }))
	assert.Empty(t, bus.GetMetrics())
}

func TestMessageBus_SendToDLQ(t *testing.T) {
	bus, _, dlq := testBus()
	event := sampleEvent()

	require.NoError(t, bus.sendToDLQ(context.Background(), event, errors.New("prefill failed")))

	sent := dlq.sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []byte(event.ComparisonID.String()), sent[0].Key)
	assert.Contains(t, string(sent[0].Value), "prefill failed")
}
