package notify

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	jsoniter "github.com/json-iterator/go"

	"github.com/alanyoungcy/hedgesim/internal/domain"
	"github.com/alanyoungcy/hedgesim/internal/simulation"
)

type captureSender struct {
	mu     sync.Mutex
	titles []string
	bodies []string
	err    error
}

func (c *captureSender) Send(_ context.Context, title, message string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.titles = append(c.titles, title)
	c.bodies = append(c.bodies, message)
	return c.err
}

func (c *captureSender) Name() string { return "capture" }

func discard() *slog.Logger { return slog.New(slog.DiscardHandler) }

func TestNotifyFiltersEvents(t *testing.T) {
	cs := &captureSender{}
	n := NewNotifier([]Sender{cs}, []string{EventRunSettled}, discard())

	if err := n.CompareDone(context.Background(), nil); err != nil {
		t.Fatal(err)
	}
	if len(cs.titles) != 0 {
		t.Fatal("filtered event was sent")
	}

	sum := domain.RunSummary{RunID: "r1", Hedging: "delta", OptionType: domain.OptionTypeCall, Premium: 1.71547, FinalPnL: -0.126, Volatility: 0.15}
	if err := n.RunSettled(context.Background(), sum); err != nil {
		t.Fatal(err)
	}
	if len(cs.titles) != 1 || cs.titles[0] != "hedgesim: delta call settled" {
		t.Fatalf("titles = %v", cs.titles)
	}
	for _, want := range []string{"run r1", "vol 15%", "premium 1.72", "final pnl -0.13"} {
		if !strings.Contains(cs.bodies[0], want) {
			t.Errorf("body %q missing %q", cs.bodies[0], want)
		}
	}
}

func TestNotifyAllowsAllWhenUnfiltered(t *testing.T) {
	cs := &captureSender{}
	n := NewNotifier([]Sender{cs}, nil, discard())
	res := []simulation.Comparison{{Volatility: 0.8}}
	if err := n.CompareDone(context.Background(), res); err != nil {
		t.Fatal(err)
	}
	if len(cs.bodies) != 1 || !strings.Contains(cs.bodies[0], "vol 80%") {
		t.Errorf("bodies = %v", cs.bodies)
	}
}

func TestDispatchCollectsErrors(t *testing.T) {
	ok, bad := &captureSender{}, &captureSender{err: errors.New("boom")}
	n := NewNotifier([]Sender{bad, ok}, nil, discard())
	err := n.Notify(context.Background(), "anything", "t", "m")
	if err == nil || !strings.Contains(err.Error(), "boom") {
		t.Errorf("err = %v", err)
	}
	if len(ok.titles) != 1 {
		t.Error("healthy sender skipped after failure")
	}
}

func TestEnabled(t *testing.T) {
	cs := &captureSender{}
	if NewNotifier(nil, nil, discard()).Enabled(EventRunSettled) {
		t.Error("enabled without senders")
	}
	n := NewNotifier([]Sender{cs}, []string{" run_settled ", ""}, discard())
	if !n.Enabled(EventRunSettled) || n.Enabled(EventCompareDone) {
		t.Error("event filter not applied")
	}
}

func TestDiscordSender(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(b, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	d := NewDiscordSender(srv.URL)
	if err := d.Send(context.Background(), "title", "body"); err != nil {
		t.Fatal(err)
	}
	if got["content"] != "**title**\nbody" {
		t.Errorf("content = %q", got["content"])
	}
}

func TestTelegramSender(t *testing.T) {
	var path string
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		b, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(b, &got)
	}))
	defer srv.Close()

	tg := NewTelegramSender("tok", "42")
	tg.apiBase = srv.URL
	if err := tg.Send(context.Background(), "title", "body"); err != nil {
		t.Fatal(err)
	}
	if path != "/bottok/sendMessage" {
		t.Errorf("path = %q", path)
	}
	if got["chat_id"] != "42" || got["text"] != "*title*\nbody" || got["disable_web_page_preview"] != true {
		t.Errorf("payload = %v", got)
	}
}

func TestSenderStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadRequest)
	}))
	defer srv.Close()
	if err := NewDiscordSender(srv.URL).Send(context.Background(), "t", "m"); err == nil {
		t.Error("expected status error")
	}
}

func TestTelegramEscapesAndReportsAPIError(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(b, &got)
		_, _ = w.Write([]byte(`{"ok":false,"description":"chat not found"}`))
	}))
	defer srv.Close()

	tg := NewTelegramSender("tok", "42")
	tg.apiBase = srv.URL
	err := tg.Send(context.Background(), "run_done", "pnl_total")
	if err == nil || !strings.Contains(err.Error(), "chat not found") {
		t.Fatalf("err = %v", err)
	}
	if got["text"] != `*run\_done*`+"\n"+`pnl\_total` {
		t.Errorf("text = %q", got["text"])
	}
}

func TestDiscordTruncatesLongContent(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = jsoniter.Unmarshal(b, &got)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	if err := NewDiscordSender(srv.URL).Send(context.Background(), "t", strings.Repeat("x", 3000)); err != nil {
		t.Fatal(err)
	}
	if n := len([]rune(got["content"])); n != discordMaxContent {
		t.Errorf("content runes = %d", n)
	}
}
