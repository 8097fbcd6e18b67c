// Package logsink is the stub's only logging front-end: a leveled logger
// whose sink is the boot UART, plus the single Fatal halt path every
// "this should never happen" branch in the rest of the stub funnels
// through (spec's Non-goal list treats logging as an opaque external
// sink; this package is the concrete stand-in for it).
//
// Grounded on the original stub's UARTLogger (original_source/src/
// logger.rs, a log.Log implementation over the UART) and on the halt
// convention of its panic handler (original_source/src/rt.rs
// #[panic_handler] — print then loop forever, there being no OS to
// return to). Fatal is implemented as a plain Go panic rather than an
// inline infinite loop so it is exercisable from host-side tests; nothing
// in cmd/stubboot recovers that panic.
package logsink

import "m1boot/internal/uart"

// Level is a logging severity, ordered least to most severe.
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	default:
		return "?"
	}
}

// Min is the minimum level that reaches the UART; anything below it is
// dropped without formatting cost.
var Min = LevelInfo

// Log writes a single line "[LEVEL] msg" to the UART if level is at or
// above Min. No allocation, no fmt — this must remain callable from
// exception context.
//
//go:nosplit
func Log(level Level, msg string) {
	if level < Min {
		return
	}
	uart.WriteString("[")
	uart.WriteString(level.String())
	uart.WriteString("] ")
	uart.WriteString(msg)
	uart.WriteString("\r\n")
}

//go:nosplit
func Debug(msg string) { Log(LevelDebug, msg) }

//go:nosplit
func Info(msg string) { Log(LevelInfo, msg) }

//go:nosplit
func Warn(msg string) { Log(LevelWarn, msg) }

//go:nosplit
func Error(msg string) { Log(LevelError, msg) }

// Fatal logs msg at Error and then panics. Its callers (MMU pool
// exhaustion, an unaligned or overlapping MMU mapping, a heap region too
// small for one segment header) never expect Fatal to return. heap.Alloc
// reports exhaustion by returning nil and the relocator reports failures
// through its return code; neither calls Fatal.
func Fatal(msg string) {
	Log(LevelError, "fatal: "+msg)
	panic(msg)
}
