package alert

import (
	"bytes"
	"encoding/json"
	"log"
	"net/http"
	"os"
	"time"

	"github.com/molehq/mole/internal/models"
)

// Notifier delivers alerts as JSON posts to a webhook URL. Delivery failures
// are logged and discarded; the monitored application never sees them.
type Notifier struct {
	url    string
	client *http.Client
	diag   *log.Logger
}

// NotifierOption configures a Notifier.
type NotifierOption func(*Notifier)

// WithHTTPClient overrides the HTTP client (tests, custom timeouts).
func WithHTTPClient(c *http.Client) NotifierOption {
	return func(n *Notifier) { n.client = c }
}

// WithDiagnostics redirects the diagnostic sink (default: stderr).
func WithDiagnostics(l *log.Logger) NotifierOption {
	return func(n *Notifier) { n.diag = l }
}

// NewNotifier builds a webhook notifier for the given URL.
func NewNotifier(webhookURL string, opts ...NotifierOption) *Notifier {
	n := &Notifier{
		url:    webhookURL,
		client: &http.Client{Timeout: 5 * time.Second},
		diag:   log.New(os.Stderr, "alert: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// SendAlert formats, truncates, and posts the alert for a payload. It
// returns the message produced (empty when the payload's hint yields none),
// regardless of whether delivery succeeded.
func (n *Notifier) SendAlert(p models.Payload) string {
	msg := Message(p)
	if msg == "" {
		return ""
	}
	msg = Truncate(msg, MaxMessageLen, ellipsis)

	body, err := json.Marshal(map[string]string{"text": msg})
	if err != nil {
		n.diag.Printf("marshal alert: %v", err)
		return msg
	}

	resp, err := n.client.Post(n.url, "application/json", bytes.NewReader(body))
	if err != nil {
		n.diag.Printf("send alert: %v", err)
		return msg
	}
	defer resp.Body.Close()

	if resp.StatusCode >= http.StatusMultipleChoices {
		n.diag.Printf("send alert: webhook returned %d", resp.StatusCode)
	}
	return msg
}
