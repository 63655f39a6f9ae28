package mole

import (
	"context"
	"fmt"
	"time"

	"github.com/molehq/mole/internal/models"
	"github.com/molehq/mole/internal/store"
)

// Classify derives the stored event type from the payload. The precedence is
// fixed and total: a stack trace wins over everything, a performance flag
// wins over plain traffic. The caller's type hint plays no part here.
func Classify(p models.Payload) models.EventType {
	switch {
	case len(p.Stack) > 0:
		return models.TypeException
	case p.Performance:
		return models.TypePerformance
	default:
		return models.TypeFeature
	}
}

// Recorder normalizes payloads into log records and writes them through the
// store.
type Recorder struct {
	store store.Store
}

// NewRecorder returns a recorder writing through the given store.
func NewRecorder(st store.Store) *Recorder {
	return &Recorder{store: st}
}

// Record builds the log record for a payload and links it to the resolved
// feature. All caller-supplied fields pass through except app_name, which is
// already captured by the feature link. Store errors propagate; recovery
// happens at the façade.
func (r *Recorder) Record(ctx context.Context, featureID string, p models.Payload) (string, error) {
	doc := store.Document(p.Fields())
	delete(doc, "app_name")

	doc["type"] = string(Classify(p))
	doc["feature_id"] = featureID

	now := time.Now().UTC()
	doc["created_at"] = now
	doc["updated_at"] = now

	id, err := r.store.Insert(ctx, store.Logs, doc)
	if err != nil {
		return "", fmt.Errorf("insert log: %w", err)
	}
	return id, nil
}
