// Package middleware instruments a gin application: every request becomes a
// raw event description handed to the recording engine. It is the Go
// counterpart of the rack layer that fed the original collector.
package middleware

import (
	"fmt"
	"runtime/debug"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/molehq/mole/internal/models"
	"github.com/molehq/mole/internal/mole"
)

// maxStackLines caps the recorded stack trace of a panicking handler.
const maxStackLines = 40

// sessionIDHeader carries the caller's session id, recorded when present.
const sessionIDHeader = "X-Session-ID"

// Options configures the instrumentation.
type Options struct {
	// AppName identifies the monitored application in every payload.
	AppName string

	// PerfThreshold flags requests slower than this as performance events.
	// Zero means 10s.
	PerfThreshold time.Duration

	// SkipPaths are not instrumented (health probes, static assets).
	SkipPaths []string
}

// Mole returns a middleware that observes each request and records it
// through the façade after the handler chain completes. A panicking handler
// is recorded as a fault, then re-panicked so the surrounding recovery
// middleware still produces the error response. Recording inherits the
// engine's fail-open policy: it cannot break the request.
func Mole(m *mole.Mole, opts Options) gin.HandlerFunc {
	skip := make(map[string]struct{}, len(opts.SkipPaths))
	for _, p := range opts.SkipPaths {
		skip[p] = struct{}{}
	}

	threshold := opts.PerfThreshold
	if threshold <= 0 {
		threshold = 10 * time.Second
	}

	return func(c *gin.Context) {
		if _, ok := skip[c.Request.URL.Path]; ok {
			c.Next()
			return
		}

		start := time.Now()

		defer func() {
			p := payloadFor(c, opts.AppName, time.Since(start))

			if r := recover(); r != nil {
				p.Type = models.HintFault
				p.Fault = fmt.Sprint(r)
				p.Stack = stackLines()
				m.Mole(c.Request.Context(), p)
				panic(r)
			}

			if time.Since(start) >= threshold {
				p.Type = models.HintPerf
				p.Performance = true
			}
			m.Mole(c.Request.Context(), p)
		}()

		c.Next()
	}
}

// payloadFor builds the raw event description for one request.
func payloadFor(c *gin.Context, appName string, elapsed time.Duration) models.Payload {
	p := models.Payload{
		AppName:     appName,
		Type:        models.HintFeature,
		Path:        c.Request.URL.Path,
		Method:      c.Request.Method,
		URL:         c.Request.URL.String(),
		IP:          c.ClientIP(),
		Browser:     c.Request.UserAgent(),
		Host:        c.Request.Host,
		RequestTime: elapsed.Seconds(),
	}

	if query := c.Request.URL.Query(); len(query) > 0 {
		params := make(map[string]string, len(query))
		for k, vs := range query {
			if len(vs) > 0 {
				params[k] = vs[0]
			}
		}
		p.Params = params
	}

	if sid := c.GetHeader(sessionIDHeader); sid != "" {
		p.Session = map[string]string{"id": sid}
	}

	return p
}

// stackLines captures the current goroutine stack as individual lines.
func stackLines() []string {
	lines := strings.Split(strings.TrimSpace(string(debug.Stack())), "\n")
	if len(lines) > maxStackLines {
		lines = lines[:maxStackLines]
	}
	return lines
}
