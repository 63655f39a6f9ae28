package alert

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/molehq/mole/internal/models"
)

func TestTruncate_ShortMessagePassesThrough(t *testing.T) {
	msg := "all good"
	if got := Truncate(msg, MaxMessageLen, "..."); got != msg {
		t.Fatalf("short message changed: %q", got)
	}

	exact := strings.Repeat("x", MaxMessageLen)
	if got := Truncate(exact, MaxMessageLen, "..."); got != exact {
		t.Fatalf("exact-length message changed: %q", got)
	}
}

func TestTruncate_LongMessageCappedWithEllipsis(t *testing.T) {
	long := strings.Repeat("x", 200)
	got := Truncate(long, MaxMessageLen, "...")

	if n := utf8.RuneCountInString(got); n != MaxMessageLen {
		t.Fatalf("expected %d runes total, got %d", MaxMessageLen, n)
	}
	if !strings.HasSuffix(got, "...") {
		t.Fatalf("expected ellipsis suffix, got %q", got)
	}
	if !strings.HasPrefix(got, strings.Repeat("x", MaxMessageLen-3)) {
		t.Fatalf("content not preserved from the front: %q", got)
	}
}

func TestTruncate_CountsRunesNotBytes(t *testing.T) {
	long := strings.Repeat("é", 200)
	got := Truncate(long, MaxMessageLen, "...")
	if n := utf8.RuneCountInString(got); n != MaxMessageLen {
		t.Fatalf("expected %d runes, got %d", MaxMessageLen, n)
	}
}

func TestMessage_FeatureHint(t *testing.T) {
	got := Message(models.Payload{
		AppName:  "Test app",
		Host:     "fred@blee.com",
		UserName: "Fernand",
		Path:     "/fred",
		Type:     models.HintFeature,
	})
	want := "[Feature] Test app on fred - Fernand\n/fred"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func TestMessage_PerfHintAppendsRequestTime(t *testing.T) {
	got := Message(models.Payload{
		AppName:     "Test app",
		Host:        "web1",
		UserName:    "Fernand",
		Path:        "/slow",
		Type:        models.HintPerf,
		RequestTime: 12.3456,
	})
	if !strings.HasPrefix(got, "[Perf] ") {
		t.Fatalf("missing perf prefix: %q", got)
	}
	if !strings.HasSuffix(got, "12.35 secs") {
		t.Fatalf("missing formatted request time: %q", got)
	}
}

func TestMessage_FaultHintAppendsFault(t *testing.T) {
	got := Message(models.Payload{
		AppName:  "Test app",
		Host:     "web1",
		UserName: "Fernand",
		Path:     "/boom",
		Type:     models.HintFault,
		Fault:    "Oh Snap!",
	})
	if !strings.HasPrefix(got, "[Fault] ") {
		t.Fatalf("missing fault prefix: %q", got)
	}
	if !strings.HasSuffix(got, "\nOh Snap!") {
		t.Fatalf("missing fault message: %q", got)
	}
}

func TestMessage_RouteInfoRendersControllerAction(t *testing.T) {
	got := Message(models.Payload{
		AppName:   "Test app",
		Path:      "/ignored",
		RouteInfo: &models.RouteInfo{Controller: "fred", Action: "blee"},
		Type:      models.HintFeature,
	})
	if !strings.HasSuffix(got, "\nfred#blee") {
		t.Fatalf("expected controller#action label: %q", got)
	}
}

func TestMessage_UnknownHintProducesNothing(t *testing.T) {
	if got := Message(models.Payload{AppName: "A", Path: "/x", Type: "banana"}); got != "" {
		t.Fatalf("expected no message, got %q", got)
	}
	if got := Message(models.Payload{AppName: "A", Path: "/x"}); got != "" {
		t.Fatalf("expected no message for empty hint, got %q", got)
	}
}

func quietLogger() *log.Logger {
	return log.New(&bytes.Buffer{}, "", 0)
}

func TestNotifier_PostsTruncatedMessage(t *testing.T) {
	var received struct {
		Text string `json:"text"`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &received)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, WithDiagnostics(quietLogger()))
	msg := n.SendAlert(models.Payload{
		AppName:  strings.Repeat("a", 200),
		Path:     "/x",
		UserName: "Fernand",
		Type:     models.HintFeature,
	})

	if msg == "" {
		t.Fatal("expected a message")
	}
	if utf8.RuneCountInString(msg) != MaxMessageLen {
		t.Fatalf("expected %d runes, got %d", MaxMessageLen, utf8.RuneCountInString(msg))
	}
	if received.Text != msg {
		t.Fatalf("webhook received %q, SendAlert returned %q", received.Text, msg)
	}
}

func TestNotifier_DeliveryFailureIsSwallowed(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // unreachable on purpose

	n := NewNotifier(srv.URL, WithDiagnostics(quietLogger()))

	// Must not panic; the produced message is still returned.
	msg := n.SendAlert(models.Payload{AppName: "A", Path: "/x", Type: models.HintFeature})
	if msg == "" {
		t.Fatal("expected the formatted message even when delivery fails")
	}
}

func TestNotifier_NoMessageNoRequest(t *testing.T) {
	called := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer srv.Close()

	n := NewNotifier(srv.URL, WithDiagnostics(quietLogger()))
	if msg := n.SendAlert(models.Payload{AppName: "A", Path: "/x"}); msg != "" {
		t.Fatalf("expected no message, got %q", msg)
	}
	if called {
		t.Fatal("webhook called for a hintless payload")
	}
}
