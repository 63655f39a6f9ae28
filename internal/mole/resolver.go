package mole

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/molehq/mole/internal/models"
	"github.com/molehq/mole/internal/store"
)

// Resolver maps an incoming event to its logical feature, creating one on
// first sight.
type Resolver struct {
	store store.Store
}

// NewResolver returns a resolver writing through the given store.
func NewResolver(st store.Store) *Resolver {
	return &Resolver{store: st}
}

// ResolveOrCreate returns the id of the feature matching the identity key,
// inserting a new feature record on a miss. Identity is app name plus
// controller/action when route info is usable, app name plus path otherwise.
//
// An existing feature is returned unchanged: reuse never refreshes
// updated_at. Store errors propagate; recovery happens at the façade.
func (r *Resolver) ResolveOrCreate(ctx context.Context, appName, path string, route *models.RouteInfo) (string, error) {
	if appName == "" {
		return "", fmt.Errorf("%w: app_name required", models.ErrMalformedPayload)
	}

	var conds store.Document
	if route.Usable() {
		conds = store.Document{
			"app_name":   appName,
			"controller": route.Controller,
			"action":     route.Action,
		}
	} else {
		if path == "" {
			return "", fmt.Errorf("%w: path or route_info required", models.ErrMalformedPayload)
		}
		conds = store.Document{
			"app_name": appName,
			"path":     path,
		}
	}

	id, _, err := r.store.FindOne(ctx, store.Features, conds)
	if err == nil {
		return id, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return "", fmt.Errorf("find feature: %w", err)
	}

	now := time.Now().UTC()
	doc := make(store.Document, len(conds)+2)
	for k, v := range conds {
		doc[k] = v
	}
	doc["created_at"] = now
	doc["updated_at"] = now

	id, err = r.store.Insert(ctx, store.Features, doc)
	if err == nil {
		return id, nil
	}
	if errors.Is(err, store.ErrDuplicate) {
		// A concurrent caller created the feature between our lookup and
		// insert. The store's identity uniqueness won the race for us:
		// re-fetch and reuse.
		id, _, ferr := r.store.FindOne(ctx, store.Features, conds)
		if ferr != nil {
			return "", fmt.Errorf("refetch feature after conflict: %w", ferr)
		}
		return id, nil
	}
	return "", fmt.Errorf("insert feature: %w", err)
}
