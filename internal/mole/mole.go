// Package mole is the event-recording engine: it resolves which feature an
// incoming event belongs to, classifies and normalizes the event, and links
// the two in the store. The façade swallows every internal failure so
// telemetry can never take down the application it monitors.
package mole

import (
	"context"
	"log"
	"os"

	"github.com/molehq/mole/internal/alert"
	"github.com/molehq/mole/internal/models"
	"github.com/molehq/mole/internal/store"
)

// Mole is the recording façade. It owns no long-lived resources beyond the
// injected store handle.
type Mole struct {
	resolver *Resolver
	recorder *Recorder
	alerts   alert.Dispatcher
	diag     *log.Logger
}

// Option configures optional collaborators on the façade.
type Option func(*Mole)

// WithAlerts attaches an alert dispatcher, invoked after each successfully
// recorded event.
func WithAlerts(d alert.Dispatcher) Option {
	return func(m *Mole) { m.alerts = d }
}

// WithDiagnostics redirects the diagnostic sink (default: stderr).
func WithDiagnostics(l *log.Logger) Option {
	return func(m *Mole) { m.diag = l }
}

// New builds a façade around an injected store.
func New(st store.Store, opts ...Option) *Mole {
	m := &Mole{
		resolver: NewResolver(st),
		recorder: NewRecorder(st),
		diag:     log.New(os.Stderr, "mole: ", log.LstdFlags),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Mole records one event: resolve or create the feature, classify and
// persist the log, optionally dispatch an alert. It never returns an error
// and never panics past this boundary; a failure loses the event, writes a
// diagnostic, and returns normally.
func (m *Mole) Mole(ctx context.Context, p models.Payload) {
	featureID, err := m.resolver.ResolveOrCreate(ctx, p.AppName, p.Path, p.RouteInfo)
	if err != nil {
		m.diag.Printf("dropping event app=%q path=%q: %v", p.AppName, p.Path, err)
		return
	}

	if _, err := m.recorder.Record(ctx, featureID, p); err != nil {
		m.diag.Printf("dropping event app=%q path=%q feature=%s: %v", p.AppName, p.Path, featureID, err)
		return
	}

	if m.alerts != nil {
		m.alerts.SendAlert(p)
	}
}

// Reset clears both collections. Test/reset use only, never part of the
// request-serving flow.
func (m *Mole) Reset(ctx context.Context) error {
	if err := m.resolver.store.Clear(ctx, store.Features); err != nil {
		return err
	}
	return m.resolver.store.Clear(ctx, store.Logs)
}
