package sink

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/segmentio/kafka-go"

	"github.com/alanyoungcy/hedgesim/internal/codec"
	"github.com/alanyoungcy/hedgesim/internal/domain"
)

func records(n int) []domain.StepRecord {
	out := make([]domain.StepRecord, n)
	for i := range out {
		out[i] = domain.StepRecord{
			Step:  i,
			Time:  float64(i) * 0.25,
			Spot:  100 + float64(i),
			Delta: 0.5,
			Hedge: 0.5,
			PnL:   0.1 * float64(i),
			State: domain.RunStateRunning,
		}
	}
	out[n-1].State = domain.RunStateSettled
	return out
}

func writeAll(t *testing.T, s domain.RecordSink, recs []domain.StepRecord) {
	t.Helper()
	for _, r := range recs {
		if err := s.WriteRecord(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
}

func TestCSV(t *testing.T) {
	var buf bytes.Buffer
	writeAll(t, NewCSV(&buf), records(2))

	want := "step,time,time_to_expiry,spot,fair_value,delta,gamma,theta,hedge,trade,cash,pnl,state\n" +
		"0,0,0,100,0,0.5,0,0,0.5,0,0,0,running\n" +
		"1,0.25,0,101,0,0.5,0,0,0.5,0,0,0.1,settled\n"
	if buf.String() != want {
		t.Errorf("csv =\n%s\nwant\n%s", buf.String(), want)
	}
}

func TestJSONL(t *testing.T) {
	var buf bytes.Buffer
	in := records(3)
	writeAll(t, NewJSONL(&buf), in)

	sc := bufio.NewScanner(&buf)
	var i int
	for sc.Scan() {
		var got domain.StepRecord
		if err := jsoniter.Unmarshal(sc.Bytes(), &got); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if got != in[i] {
			t.Errorf("line %d = %+v, want %+v", i, got, in[i])
		}
		i++
	}
	if i != len(in) {
		t.Errorf("lines = %d, want %d", i, len(in))
	}
}

func TestForFormat(t *testing.T) {
	var buf bytes.Buffer
	if s, err := ForFormat("", &buf); err != nil || s == nil {
		t.Errorf("default format: %v", err)
	}
	if _, ok := mustFormat(t, "JSONL").(*JSONL); !ok {
		t.Error("jsonl format not selected")
	}
	if _, err := ForFormat("parquet", &buf); err == nil {
		t.Error("expected error for unknown format")
	}
}

func mustFormat(t *testing.T, f string) domain.RecordSink {
	t.Helper()
	s, err := ForFormat(f, &bytes.Buffer{})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

type closeErr struct{ Memory }

func (c *closeErr) Close() error { return errors.New("close failed") }

func TestMulti(t *testing.T) {
	a, b := NewMemory(), NewMemory()
	m := Multi{a, b}
	for _, r := range records(4) {
		if err := m.WriteRecord(context.Background(), r); err != nil {
			t.Fatal(err)
		}
	}
	if len(a.Records()) != 4 || len(b.Records()) != 4 {
		t.Errorf("fan-out = %d/%d", len(a.Records()), len(b.Records()))
	}
	if err := (Multi{a, &closeErr{}}).Close(); err == nil {
		t.Error("expected joined close error")
	}
}

type fakeBus struct {
	mu        sync.Mutex
	published map[string][][]byte
	streamed  map[string][][]byte
}

func newFakeBus() *fakeBus {
	return &fakeBus{published: map[string][][]byte{}, streamed: map[string][][]byte{}}
}

func (f *fakeBus) Publish(_ context.Context, ch string, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published[ch] = append(f.published[ch], p)
	return nil
}

func (f *fakeBus) Subscribe(context.Context, string) (<-chan []byte, error) {
	return nil, errors.New("not supported")
}

func (f *fakeBus) StreamAppend(_ context.Context, s string, p []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamed[s] = append(f.streamed[s], p)
	return nil
}

func TestBus(t *testing.T) {
	fb := newFakeBus()
	writeAll(t, NewBus(fb, codec.JSON{}, "run-1", "", ""), records(3))

	if n := len(fb.published[DefaultChannel]); n != 3 {
		t.Fatalf("published = %d", n)
	}
	if n := len(fb.streamed[DefaultStream]); n != 3 {
		t.Fatalf("streamed = %d", n)
	}
	var ev domain.RecordEvent
	if err := (codec.JSON{}).Unmarshal(fb.published[DefaultChannel][2], &ev); err != nil {
		t.Fatal(err)
	}
	if ev.RunID != "run-1" || ev.Record.Step != 2 || ev.Record.State != domain.RunStateSettled {
		t.Errorf("event = %+v", ev)
	}
}

type recorder struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (r *recorder) Broadcast(p []byte) {
	r.mu.Lock()
	r.payloads = append(r.payloads, p)
	r.mu.Unlock()
}

func TestBroadcast(t *testing.T) {
	rec := &recorder{}
	writeAll(t, NewBroadcast(rec, codec.Proto{}, "run-2"), records(2))
	if len(rec.payloads) != 2 {
		t.Fatalf("payloads = %d", len(rec.payloads))
	}
	var ev domain.RecordEvent
	if err := (codec.Proto{}).Unmarshal(rec.payloads[1], &ev); err != nil {
		t.Fatal(err)
	}
	if ev.RunID != "run-2" || ev.Record.Spot != 101 {
		t.Errorf("event = %+v", ev)
	}
}

type fakeWriter struct {
	batches [][]kafka.Message
	closed  bool
	err     error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	cp := make([]kafka.Message, len(msgs))
	copy(cp, msgs)
	f.batches = append(f.batches, cp)
	return nil
}

func (f *fakeWriter) Close() error {
	f.closed = true
	return nil
}

func TestKafkaBatchesAndFlushesOnSettle(t *testing.T) {
	fw := &fakeWriter{}
	writeAll(t, NewKafka(fw, codec.JSON{}, "run-3", 2), records(5))

	// 2 + 2 + the settlement record on its own.
	if len(fw.batches) != 3 {
		t.Fatalf("batches = %d, want 3", len(fw.batches))
	}
	if got := len(fw.batches[2]); got != 1 {
		t.Errorf("last batch = %d", got)
	}
	for _, b := range fw.batches {
		for _, m := range b {
			if string(m.Key) != "run-3" {
				t.Errorf("key = %q", m.Key)
			}
		}
	}
	if !fw.closed {
		t.Error("writer not closed")
	}
}

func TestKafkaWriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}
	k := NewKafka(fw, codec.JSON{}, "run-4", 1)
	err := k.WriteRecord(context.Background(), records(1)[0])
	if err == nil || !strings.Contains(err.Error(), "broker down") {
		t.Errorf("err = %v", err)
	}
}

func TestNewKafkaWriterValidates(t *testing.T) {
	if _, err := NewKafkaWriter(KafkaConfig{Topic: "t"}); err == nil {
		t.Error("expected error without brokers")
	}
	if _, err := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}}); err == nil {
		t.Error("expected error without topic")
	}
	w, err := NewKafkaWriter(KafkaConfig{Brokers: []string{"localhost:9092"}, Topic: "records"})
	if err != nil {
		t.Fatal(err)
	}
	if w.Topic != "records" || w.WriteTimeout != 10*time.Second {
		t.Errorf("writer = %+v", w)
	}
}
