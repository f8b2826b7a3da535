package cworch

import (
	"time"

	"github.com/b-harvest/cw-orch-go/pkg/cworch/environment"
)

// TxResponse and its supporting event types live in package environment so
// the environment backends can construct them without importing this
// package; these aliases are the surface most callers of the handle API use.
type (
	EventAttribute = environment.EventAttribute
	Event          = environment.Event
	LogEntry       = environment.LogEntry
	TxResponse     = environment.TxResponse
)

// ParseTimestamp tries each accepted chain timestamp format in order,
// falling back silently rather than erroring on the first mismatch.
func ParseTimestamp(s string) time.Time { return environment.ParseTimestamp(s) }

// FormatTimestamp renders t using the canonical layout, used by round-trip
// tests.
func FormatTimestamp(t time.Time) string { return environment.FormatTimestamp(t) }
