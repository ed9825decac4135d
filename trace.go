package flexus

import "github.com/rs/zerolog"

// Pass tracing is off by default. It is process wide, not per schema.
var tracer = zerolog.Nop()

// SetTraceLogger routes per-field pass events through l at trace level.
// Pass zerolog.Nop() to turn tracing back off.
func SetTraceLogger(l zerolog.Logger) {
	tracer = l
}
