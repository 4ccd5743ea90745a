package sink

import (
	"context"
	"fmt"

	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Broadcaster fans a payload out to connected clients.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Broadcast pushes records to an in-process broadcaster such as the
// websocket hub.
type Broadcast struct {
	to    Broadcaster
	codec codec.Codec
	runID string
}

// NewBroadcast returns a Broadcast sink for one run.
func NewBroadcast(to Broadcaster, c codec.Codec, runID string) *Broadcast {
	return &Broadcast{to: to, codec: c, runID: runID}
}

func (b *Broadcast) WriteRecord(_ context.Context, rec domain.StepRecord) error {
	payload, err := b.codec.Marshal(domain.RecordEvent{RunID: b.runID, Record: rec})
	if err != nil {
		return fmt.Errorf("sink: broadcast step %d: %w", rec.Step, err)
	}
	b.to.Broadcast(payload)
	return nil
}

func (b *Broadcast) Close() error { return nil }

var _ domain.RecordSink = (*Broadcast)(nil)
