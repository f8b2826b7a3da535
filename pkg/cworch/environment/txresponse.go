package environment

import (
	"strconv"
	"time"
)

// EventAttribute is one key/value pair on an Event.
type EventAttribute struct {
	Key   string
	Value string
}

// Event is one ABCI event, e.g. {type: "instantiate", attributes: [...]}.
type Event struct {
	Type       string
	Attributes []EventAttribute
}

// LogEntry mirrors the SDK's per-message log entry.
type LogEntry struct {
	MsgIndex *uint32
	Events   []Event
}

// TxResponse is the normalized transaction outcome every environment
// variant returns from upload/instantiate/execute/migrate/bank_send.
type TxResponse struct {
	Height    int64
	TxHash    string
	Codespace string
	Code      uint32
	RawLog    string
	Logs      []LogEntry
	GasWanted int64
	GasUsed   int64
	Timestamp time.Time
	Events    []Event
}

// Succeeded reports whether Code == 0.
func (r *TxResponse) Succeeded() bool { return r.Code == 0 }

// EventAttrValue returns the first attribute value for (type, key), or ""
// if absent.
func (r *TxResponse) EventAttrValue(eventType, key string) string {
	for _, e := range r.Events {
		if e.Type != eventType {
			continue
		}
		for _, a := range e.Attributes {
			if a.Key == key {
				return a.Value
			}
		}
	}
	return ""
}

// EventAttrValues returns every attribute value across all matching events
// for (type, key), preserving order.
func (r *TxResponse) EventAttrValues(eventType, key string) []string {
	var out []string
	for _, e := range r.Events {
		if e.Type != eventType {
			continue
		}
		for _, a := range e.Attributes {
			if a.Key == key {
				out = append(out, a.Value)
			}
		}
	}
	return out
}

// EventsOfType returns every event with the given type.
func (r *TxResponse) EventsOfType(eventType string) []Event {
	var out []Event
	for _, e := range r.Events {
		if e.Type == eventType {
			out = append(out, e)
		}
	}
	return out
}

// UploadedCodeID extracts the code-id emitted by a successful upload's
// "store_code" event. Returns 0, false if absent or unparsable.
func (r *TxResponse) UploadedCodeID() (uint64, bool) {
	v := r.EventAttrValue("store_code", "code_id")
	if v == "" {
		return 0, false
	}
	id, err := strconv.ParseUint(v, 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// InstantiatedAddress extracts the bech32 address emitted by a successful
// instantiate's "instantiate" event. Uses the first "_contract_address"
// attribute, matching the upstream convention that the outermost wasm
// module's instantiate event is listed first.
func (r *TxResponse) InstantiatedAddress() (string, bool) {
	v := r.EventAttrValue("instantiate", "_contract_address")
	if v == "" {
		return "", false
	}
	return v, true
}

// timestampLayouts are the four formats the chain has been observed to
// emit. Grounded on boot-core/src/daemon/tx_resp.rs in original_source/.
var timestampLayouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	// Unix seconds as a bare decimal string is tried separately below.
}

// ParseTimestamp tries each of the four accepted formats in order, falling
// back silently rather than erroring on the first mismatch. Returns the
// zero time if none match.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	if secs, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(secs, 0).UTC()
	}
	return time.Time{}
}

// FormatTimestamp renders t using the canonical (first) layout, used by
// round-trip tests.
func FormatTimestamp(t time.Time) string {
	return t.UTC().Format(timestampLayouts[0])
}
