// Package monitoring holds the package-level diagnostic logger shared by the
// viewer's library packages.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Tagged returns a logger that prefixes every line with "[tag] ", resolved
// against Logf at call time so later SetLogger calls still apply.
func Tagged(tag string) func(format string, v ...interface{}) {
	prefix := fmt.Sprintf("[%s] ", tag)
	return func(format string, v ...interface{}) {
		Logf(prefix+format, v...)
	}
}
