package sink

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// defaultKafkaBatch is the number of records buffered before a write.
const defaultKafkaBatch = 100

// MessageWriter is the subset of *kafka.Writer the sink needs.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaConfig configures NewKafkaWriter.
type KafkaConfig struct {
	Brokers      []string
	Topic        string
	BatchSize    int
	WriteTimeout time.Duration
}

// NewKafkaWriter builds a writer that keys messages to partitions by hash,
// which keeps every record of a run on one partition and in order.
func NewKafkaWriter(cfg KafkaConfig) (*kafka.Writer, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("sink: kafka: no brokers configured")
	}
	if cfg.Topic == "" {
		return nil, errors.New("sink: kafka: topic is required")
	}
	timeout := cfg.WriteTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(cfg.Brokers...),
		Topic:                  cfg.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		Compression:            kafka.Lz4,
		AllowAutoTopicCreation: true,
		WriteTimeout:           timeout,
	}, nil
}

// Kafka buffers records and writes them in batches keyed by run ID. Close
// flushes what is left and closes the writer.
type Kafka struct {
	w       MessageWriter
	codec   codec.Codec
	key     []byte
	batch   int
	pending []kafka.Message
}

// NewKafka returns a Kafka sink for one run. batch <= 0 selects the default.
func NewKafka(w MessageWriter, c codec.Codec, runID string, batch int) *Kafka {
	if batch <= 0 {
		batch = defaultKafkaBatch
	}
	return &Kafka{w: w, codec: c, key: []byte(runID), batch: batch}
}

func (k *Kafka) WriteRecord(ctx context.Context, rec domain.StepRecord) error {
	payload, err := k.codec.Marshal(domain.RecordEvent{RunID: string(k.key), Record: rec})
	if err != nil {
		return fmt.Errorf("sink: kafka step %d: %w", rec.Step, err)
	}
	k.pending = append(k.pending, kafka.Message{
		Key:   k.key,
		Value: payload,
		Headers: []kafka.Header{
			{Key: "content-type", Value: []byte(k.codec.ContentType())},
		},
	})
	// The settlement record ends the run; ship it right away.
	if len(k.pending) >= k.batch || rec.State == domain.RunStateSettled {
		return k.flush(ctx)
	}
	return nil
}

// Flush writes any buffered records.
func (k *Kafka) Flush(ctx context.Context) error { return k.flush(ctx) }

func (k *Kafka) flush(ctx context.Context) error {
	if len(k.pending) == 0 {
		return nil
	}
	if err := k.w.WriteMessages(ctx, k.pending...); err != nil {
		return fmt.Errorf("sink: kafka write %d messages: %w", len(k.pending), err)
	}
	k.pending = nil
	return nil
}

// Close flushes and closes the writer.
func (k *Kafka) Close() error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	ferr := k.flush(ctx)
	if err := k.w.Close(); err != nil {
		return errors.Join(ferr, fmt.Errorf("sink: kafka close: %w", err))
	}
	return ferr
}

var _ domain.RecordSink = (*Kafka)(nil)
