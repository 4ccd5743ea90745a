package sink

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/alanyoungcy/hedgesim/internal/domain"
)

// Header is the CSV column order. It matches the JSON field names.
var Header = []string{
	"step", "time", "time_to_expiry", "spot", "fair_value", "delta", "gamma",
	"theta", "hedge", "trade", "cash", "pnl", "state",
}

// CSV writes records as comma-separated rows under a header line. Floats use
// the shortest representation that round-trips, so output is byte-stable.
type CSV struct {
	w           *csv.Writer
	wroteHeader bool
}

// NewCSV writes to w. Call Close to flush.
func NewCSV(w io.Writer) *CSV {
	return &CSV{w: csv.NewWriter(w)}
}

func (c *CSV) WriteRecord(_ context.Context, rec domain.StepRecord) error {
	if !c.wroteHeader {
		if err := c.w.Write(Header); err != nil {
			return fmt.Errorf("sink: csv header: %w", err)
		}
		c.wroteHeader = true
	}
	if err := c.w.Write(row(rec)); err != nil {
		return fmt.Errorf("sink: csv step %d: %w", rec.Step, err)
	}
	return nil
}

// Close flushes buffered rows. It does not close the underlying writer.
func (c *CSV) Close() error {
	c.w.Flush()
	if err := c.w.Error(); err != nil {
		return fmt.Errorf("sink: csv flush: %w", err)
	}
	return nil
}

func row(r domain.StepRecord) []string {
	return []string{
		strconv.Itoa(r.Step),
		ff(r.Time),
		ff(r.TimeToExpiry),
		ff(r.Spot),
		ff(r.FairValue),
		ff(r.Delta),
		ff(r.Gamma),
		ff(r.Theta),
		ff(r.Hedge),
		ff(r.Trade),
		ff(r.Cash),
		ff(r.PnL),
		string(r.State),
	}
}

func ff(x float64) string { return strconv.FormatFloat(x, 'g', -1, 64) }

var _ domain.RecordSink = (*CSV)(nil)
