package sink

import (
	"bufio"
	"context"
	"fmt"
	"io"

	jsoniter "github.com/json-iterator/go"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// JSONL writes one JSON object per line.
type JSONL struct {
	buf *bufio.Writer
	enc *jsoniter.Encoder
}

// NewJSONL writes to w. Call Close to flush.
func NewJSONL(w io.Writer) *JSONL {
	buf := bufio.NewWriter(w)
	return &JSONL{
		buf: buf,
		enc: jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(buf),
	}
}

// WriteRecord encodes rec followed by a newline.
func (j *JSONL) WriteRecord(_ context.Context, rec domain.StepRecord) error {
	if err := j.enc.Encode(rec); err != nil {
		return fmt.Errorf("sink: jsonl step %d: %w", rec.Step, err)
	}
	return nil
}

// Close flushes buffered lines. It does not close the underlying writer.
func (j *JSONL) Close() error {
	if err := j.buf.Flush(); err != nil {
		return fmt.Errorf("sink: jsonl flush: %w", err)
	}
	return nil
}

var _ domain.RecordSink = (*JSONL)(nil)
