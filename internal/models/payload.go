package models

import (
	"encoding/json"
	"errors"
)

// ErrMalformedPayload marks a payload that cannot be tied to a feature:
// no app_name, or neither a path nor usable route info.
var ErrMalformedPayload = errors.New("payload missing identity fields")

// EventType is the stored classification of an event log.
// It is derived from the payload, never taken from the caller.
type EventType string

const (
	TypeFeature     EventType = "Feature"
	TypePerformance EventType = "Performance"
	TypeException   EventType = "Exception"
)

// Caller-declared type hints. These are informational: alerting uses them to
// pick a message prefix, storage ignores them.
const (
	HintFeature = "feature"
	HintPerf    = "perf"
	HintFault   = "fault"
)

// RouteInfo is framework route metadata. When present (controller and action
// both set) it supersedes the request path for feature identity.
type RouteInfo struct {
	Controller string `json:"controller"`
	Action     string `json:"action"`
	ID         string `json:"id,omitempty"`
}

// Usable reports whether the route info can serve as a feature identity.
func (r *RouteInfo) Usable() bool {
	return r != nil && r.Controller != "" && r.Action != ""
}

// Payload is one raw event description as produced by the instrumentation
// layer or posted to the collector. Known fields are typed; anything else a
// caller supplies lands in Extra and is persisted verbatim.
type Payload struct {
	AppName     string            `json:"app_name"`
	Path        string            `json:"path,omitempty"`
	RouteInfo   *RouteInfo        `json:"route_info,omitempty"`
	Type        string            `json:"type,omitempty"` // caller hint: feature|perf|fault
	Stack       []string          `json:"stack,omitempty"`
	Performance bool              `json:"performance,omitempty"`
	Fault       string            `json:"fault,omitempty"`
	RequestTime float64           `json:"request_time,omitempty"`
	IP          string            `json:"ip,omitempty"`
	Browser     string            `json:"browser,omitempty"`
	UserID      int64             `json:"user_id,omitempty"`
	UserName    string            `json:"user_name,omitempty"`
	URL         string            `json:"url,omitempty"`
	Method      string            `json:"method,omitempty"`
	Host        string            `json:"host,omitempty"`
	Environment string            `json:"environment,omitempty"`
	Params      map[string]string `json:"params,omitempty"`
	Session     map[string]string `json:"session,omitempty"`
	Extra       map[string]any    `json:"-"`
}

// knownPayloadKeys mirrors the json tags above so UnmarshalJSON can route
// everything else into Extra.
var knownPayloadKeys = []string{
	"app_name", "path", "route_info", "type", "stack", "performance",
	"fault", "request_time", "ip", "browser", "user_id", "user_name",
	"url", "method", "host", "environment", "params", "session",
}

type payloadAlias Payload

// UnmarshalJSON decodes the typed fields and keeps unknown keys in Extra so
// open-ended payloads survive ingestion unchanged.
func (p *Payload) UnmarshalJSON(b []byte) error {
	var a payloadAlias
	if err := json.Unmarshal(b, &a); err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for _, k := range knownPayloadKeys {
		delete(raw, k)
	}
	if len(raw) > 0 {
		a.Extra = make(map[string]any, len(raw))
		for k, v := range raw {
			var val any
			if err := json.Unmarshal(v, &val); err != nil {
				return err
			}
			a.Extra[k] = val
		}
	}

	*p = Payload(a)
	return nil
}

// Fields flattens the payload into a storable document, including app_name
// and the caller type hint. The recorder strips app_name and overwrites type
// with the derived classification before persisting.
func (p Payload) Fields() map[string]any {
	doc := make(map[string]any, len(p.Extra)+16)
	for k, v := range p.Extra {
		doc[k] = v
	}

	doc["app_name"] = p.AppName
	if p.Type != "" {
		doc["type"] = p.Type
	}
	if p.Path != "" {
		doc["path"] = p.Path
	}
	if p.RouteInfo != nil {
		ri := map[string]any{
			"controller": p.RouteInfo.Controller,
			"action":     p.RouteInfo.Action,
		}
		if p.RouteInfo.ID != "" {
			ri["id"] = p.RouteInfo.ID
		}
		doc["route_info"] = ri
	}
	if len(p.Stack) > 0 {
		doc["stack"] = p.Stack
	}
	if p.Performance {
		doc["performance"] = true
	}
	if p.Fault != "" {
		doc["fault"] = p.Fault
	}
	if p.RequestTime != 0 {
		doc["request_time"] = p.RequestTime
	}
	if p.IP != "" {
		doc["ip"] = p.IP
	}
	if p.Browser != "" {
		doc["browser"] = p.Browser
	}
	if p.UserID != 0 {
		doc["user_id"] = p.UserID
	}
	if p.UserName != "" {
		doc["user_name"] = p.UserName
	}
	if p.URL != "" {
		doc["url"] = p.URL
	}
	if p.Method != "" {
		doc["method"] = p.Method
	}
	if p.Host != "" {
		doc["host"] = p.Host
	}
	if p.Environment != "" {
		doc["environment"] = p.Environment
	}
	if len(p.Params) > 0 {
		doc["params"] = p.Params
	}
	if len(p.Session) > 0 {
		doc["session"] = p.Session
	}
	return doc
}
