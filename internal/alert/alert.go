// Package alert turns recorded events into short notifications on an
// external channel. It is strictly best-effort: nothing raised here ever
// reaches the recording engine.
package alert

import (
	"fmt"
	"strings"

	"github.com/molehq/mole/internal/models"
)

// MaxMessageLen is the hard cap on an outgoing alert, in runes.
const MaxMessageLen = 140

const ellipsis = "..."

// Dispatcher sends a short alert for a recorded event. Implementations must
// never panic or propagate errors past their own boundary. The returned
// string is the message produced, empty when nothing was sent.
type Dispatcher interface {
	SendAlert(p models.Payload) string
}

// Message formats the alert text for a payload. The caller-declared type
// hint picks the prefix; an unknown hint produces no message at all.
func Message(p models.Payload) string {
	base := fmt.Sprintf("%s on %s - %s\n%s",
		p.AppName, formatHost(p.Host), p.UserName, featureLabel(p))

	switch p.Type {
	case models.HintFeature:
		return "[Feature] " + base
	case models.HintPerf:
		return fmt.Sprintf("[Perf] %s\n%4.2f secs", base, p.RequestTime)
	case models.HintFault:
		return fmt.Sprintf("[Fault] %s\n%s", base, p.Fault)
	}
	return ""
}

// Truncate caps s at limit runes, replacing the tail with marker when the
// text is longer. Excess content is discarded from the end.
func Truncate(s string, limit int, marker string) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	keep := limit - len([]rune(marker))
	if keep < 0 {
		keep = 0
	}
	return string(runes[:keep]) + marker
}

// featureLabel renders controller#action when route info is usable, the
// request path otherwise.
func featureLabel(p models.Payload) string {
	if p.RouteInfo.Usable() {
		return p.RouteInfo.Controller + "#" + p.RouteInfo.Action
	}
	return p.Path
}

// formatHost strips the domain part from user@host style hostnames.
func formatHost(host string) string {
	if i := strings.Index(host, "@"); i >= 0 {
		return host[:i]
	}
	return host
}
