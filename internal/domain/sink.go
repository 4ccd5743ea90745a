package domain

import "context"

// RecordSink consumes the ordered record stream of a run. WriteRecord is
// called once per step in step order; Close flushes buffered output.
type RecordSink interface {
	WriteRecord(ctx context.Context, rec StepRecord) error
	Close() error
}
