// Package debug provides conditional debug logging for profileplot.
//
// Debug logging is enabled by setting the PPLOT_DEBUG environment
// variable:
//
//	PPLOT_DEBUG=1 pplot --data profiles.csv
//
// When enabled, messages are written to stderr with timestamps. When
// disabled (default), all debug functions are no-ops.
package debug

import (
	"log"
	"os"
	"time"
)

var (
	enabled bool
	logger  *log.Logger
)

func init() {
	if os.Getenv("PPLOT_DEBUG") != "" {
		enabled = true
		logger = log.New(os.Stderr, "[PPLOT_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Enabled returns whether debug logging is enabled.
func Enabled() bool {
	return enabled
}

// SetEnabled allows programmatic control of debug logging, mainly for
// tests.
func SetEnabled(e bool) {
	enabled = e
	if e && logger == nil {
		logger = log.New(os.Stderr, "[PPLOT_DEBUG] ", log.Ltime|log.Lmicroseconds)
	}
}

// Log writes a printf-style debug message if debug logging is enabled.
func Log(format string, args ...any) {
	if !enabled {
		return
	}
	logger.Printf(format, args...)
}

// LogTiming reports how long a named operation took.
func LogTiming(name string, elapsed time.Duration) {
	if !enabled {
		return
	}
	logger.Printf("%s took %s", name, elapsed)
}
