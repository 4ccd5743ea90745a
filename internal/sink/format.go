package sink

import (
	"fmt"
	"io"
	"strings"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

const (
	FormatCSV   = "csv"
	FormatJSONL = "jsonl"
)

// ForFormat returns the file sink for format ("csv" or "jsonl").
func ForFormat(format string, w io.Writer) (domain.RecordSink, error) {
	switch strings.ToLower(format) {
	case "", FormatCSV:
		return NewCSV(w), nil
	case FormatJSONL, "ndjson":
		return NewJSONL(w), nil
	default:
		return nil, fmt.Errorf("sink: unknown output format %q", format)
	}
}
