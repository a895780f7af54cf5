// Package monitoring holds the process-wide diagnostic logger hook.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf and
// may be replaced with SetLogger so tests can capture or mute output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Prefixed returns a logger that forwards to the current Logf with prefix
// prepended to every format string. The lookup of Logf happens per call, so
// a later SetLogger still takes effect.
func Prefixed(prefix string) func(format string, v ...interface{}) {
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}

// LogWarnings emits one line per decode warning for the named source.
func LogWarnings(source string, warnings []string) {
	for _, w := range warnings {
		Logf("warning: %s: %s", source, w)
	}
}
