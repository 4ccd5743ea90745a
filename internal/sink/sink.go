// Package sink implements the consumers of a run's record stream: files,
// memory, and the live transports used for downstream charting.
package sink

import (
	"context"
	"errors"
	"sync"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Memory keeps every record in order. Safe for concurrent readers.
type Memory struct {
	mu      sync.RWMutex
	records []domain.StepRecord
}

// NewMemory returns an empty Memory sink.
func NewMemory() *Memory { return &Memory{} }

func (m *Memory) WriteRecord(_ context.Context, rec domain.StepRecord) error {
	m.mu.Lock()
	m.records = append(m.records, rec)
	m.mu.Unlock()
	return nil
}

func (m *Memory) Close() error { return nil }

// Records returns a copy of the records written so far.
func (m *Memory) Records() []domain.StepRecord {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]domain.StepRecord, len(m.records))
	copy(out, m.records)
	return out
}

// Multi writes each record to all of its sinks in order, stopping at the
// first failure.
type Multi []domain.RecordSink

func (m Multi) WriteRecord(ctx context.Context, rec domain.StepRecord) error {
	for _, s := range m {
		if err := s.WriteRecord(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// Close closes every sink and joins their errors.
func (m Multi) Close() error {
	var errs []error
	for _, s := range m {
		if err := s.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var (
	_ domain.RecordSink = (*Memory)(nil)
	_ domain.RecordSink = Multi(nil)
)
