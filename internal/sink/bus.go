package sink

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/domain"
)

const (
	// DefaultChannel is the pub/sub channel live records are published on.
	DefaultChannel = "hedgesim:records"
	// DefaultStream is the capped stream records are appended to.
	DefaultStream = "hedgesim:records:stream"
)

// Bus publishes every record, tagged with its run ID, to a SignalBus channel
// and appends it to a stream so late subscribers can catch up.
type Bus struct {
	bus     domain.SignalBus
	codec   codec.Codec
	runID   string
	channel string
	stream  string
}

// NewBus returns a Bus sink for one run. Empty channel or stream names fall
// back to the defaults.
func NewBus(bus domain.SignalBus, c codec.Codec, runID, channel, stream string) *Bus {
	if channel == "" {
		channel = DefaultChannel
	}
	if stream == "" {
		stream = DefaultStream
	}
	return &Bus{bus: bus, codec: c, runID: runID, channel: channel, stream: stream}
}

func (b *Bus) WriteRecord(ctx context.Context, rec domain.StepRecord) error {
	payload, err := b.codec.Marshal(domain.RecordEvent{RunID: b.runID, Record: rec})
	if err != nil {
		return fmt.Errorf("sink: bus step %d: %w", rec.Step, err)
	}
	if err := b.bus.Publish(ctx, b.channel, payload); err != nil {
		return fmt.Errorf("sink: bus step %d: %w", rec.Step, err)
	}
	if err := b.bus.StreamAppend(ctx, b.stream, payload); err != nil {
		return fmt.Errorf("sink: bus step %d: %w", rec.Step, err)
	}
	return nil
}

func (b *Bus) Close() error { return nil }

var _ domain.RecordSink = (*Bus)(nil)
