// Package parser normalizes inbound payloads into per-space events.
// Every shape a device can send is resolved here into a Payload kind;
// nothing downstream inspects raw JSON.
package parser

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/jssroberto/teraspot/internal/models"
)

// Kind payload shape
type Kind int

const (
	// KindEmpty null, empty, invalid or unrecognized input
	KindEmpty Kind = iota
	// KindEventList array of events, bare or under "events"
	KindEventList
	// KindSnapshot legacy {"spaces": {id: {...}}} snapshot
	KindSnapshot
	// KindSingle one event object carrying space_id
	KindSingle
)

func (k Kind) String() string {
	switch k {
	case KindEventList:
		return "event_list"
	case KindSnapshot:
		return "snapshot"
	case KindSingle:
		return "single"
	default:
		return "empty"
	}
}

// Payload normalized input
type Payload struct {
	Kind   Kind
	Events []models.RawEvent
}

// IsEmpty no events to process
func (p Payload) IsEmpty() bool {
	return len(p.Events) == 0
}

// Clock returns the current time; replaced in tests
type Clock func() time.Time

// Parser holds the clock used for defaulted timestamps
type Parser struct {
	now Clock
}

// New parser using the UTC wall clock
func New() *Parser {
	return &Parser{now: func() time.Time { return time.Now().UTC() }}
}

// NewWithClock fixed clock for tests
func NewWithClock(now Clock) *Parser {
	return &Parser{now: now}
}

// ParseEvents package-level helper using the wall clock
func ParseEvents(raw []byte) Payload {
	return New().ParseEvents(raw)
}

// ParseEvents resolves raw bytes into a Payload.
// Precedence for objects: events list > spaces snapshot > space_id.
func (p *Parser) ParseEvents(raw []byte) Payload {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return Payload{Kind: KindEmpty}
	}

	// JSON string: the payload was double encoded
	if raw[0] == '"' {
		var inner string
		if err := json.Unmarshal(raw, &inner); err != nil {
			return Payload{Kind: KindEmpty}
		}
		raw = bytes.TrimSpace([]byte(inner))
		if len(raw) == 0 || raw[0] == '"' {
			return Payload{Kind: KindEmpty}
		}
		return p.ParseEvents(raw)
	}

	switch raw[0] {
	case '[':
		return p.parseList(raw)
	case '{':
		return p.parseObject(raw)
	default:
		return Payload{Kind: KindEmpty}
	}
}

func (p *Parser) parseList(raw []byte) Payload {
	var elems []json.RawMessage
	if err := json.Unmarshal(raw, &elems); err != nil {
		return Payload{Kind: KindEmpty}
	}
	return Payload{Kind: KindEventList, Events: decodeEvents(elems)}
}

func (p *Parser) parseObject(raw []byte) Payload {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return Payload{Kind: KindEmpty}
	}

	// 1. events list
	if rawEvents, ok := obj["events"]; ok {
		var elems []json.RawMessage
		if err := json.Unmarshal(rawEvents, &elems); err == nil && elems != nil {
			return Payload{Kind: KindEventList, Events: decodeEvents(elems)}
		}
	}

	// 2. legacy snapshot
	if rawSpaces, ok := obj["spaces"]; ok {
		return p.parseSnapshot(raw, rawSpaces)
	}

	// 3. single event
	if _, ok := obj["space_id"]; ok {
		ev := decodeEvent(raw)
		if _, has := ev["timestamp"]; !has {
			ev["timestamp"] = p.timestamp()
		}
		return Payload{Kind: KindSingle, Events: []models.RawEvent{ev}}
	}

	return Payload{Kind: KindEmpty}
}

// parseSnapshot fans out spaces in document order, inheriting top-level
// timestamp and truthy device/facility/zone ids
func (p *Parser) parseSnapshot(raw []byte, rawSpaces json.RawMessage) Payload {
	keys, values, err := orderedObject(rawSpaces)
	if err != nil {
		return Payload{Kind: KindEmpty}
	}

	top := decodeEvent(raw)
	timestamp := top["timestamp"]
	if !truthy(timestamp) {
		timestamp = p.timestamp()
	}

	events := make([]models.RawEvent, 0, len(keys))
	for _, spaceID := range keys {
		ev := decodeEvent(values[spaceID])
		if _, has := ev["space_id"]; !has {
			ev["space_id"] = spaceID
		}
		if _, has := ev["timestamp"]; !has {
			ev["timestamp"] = timestamp
		}
		for _, key := range []string{"device_id", "facility_id", "zone_id"} {
			if _, has := ev[key]; !has && truthy(top[key]) {
				ev[key] = top[key]
			}
		}
		events = append(events, ev)
	}
	return Payload{Kind: KindSnapshot, Events: events}
}

func (p *Parser) timestamp() string {
	return p.now().UTC().Format(time.RFC3339Nano)
}

// ExtractRawPayload unwraps an API-gateway style {"body": ...} envelope.
// A string body is returned as its contents.
func ExtractRawPayload(raw []byte) []byte {
	trimmed := bytes.TrimSpace(raw)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return raw
	}
	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return raw
	}
	body, ok := envelope["body"]
	if !ok {
		return raw
	}
	var s string
	if err := json.Unmarshal(body, &s); err == nil {
		return []byte(s)
	}
	return body
}

func decodeEvents(elems []json.RawMessage) []models.RawEvent {
	events := make([]models.RawEvent, 0, len(elems))
	for _, elem := range elems {
		events = append(events, decodeEvent(elem))
	}
	return events
}

// decodeEvent non-objects become empty events
func decodeEvent(raw []byte) models.RawEvent {
	var ev map[string]interface{}
	if err := json.Unmarshal(raw, &ev); err != nil || ev == nil {
		return models.RawEvent{}
	}
	return models.RawEvent(ev)
}

// truthy mirrors JSON truthiness: null, false, 0, "" and empty containers are false
func truthy(v interface{}) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	case float64:
		return t != 0
	case []interface{}:
		return len(t) > 0
	case map[string]interface{}:
		return len(t) > 0
	default:
		return true
	}
}
