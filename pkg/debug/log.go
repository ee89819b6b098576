// Package debug toggles verbose logging for the frame loop
package debug

import (
	"fmt"
	"log"

	"github.com/recera/pinmap/pkg/frame"
)

// EnableLogging routes frame loop debug output to the standard logger
func EnableLogging() {
	frame.SetDebugLog(func(args ...interface{}) {
		log.Println(args...)
	})
}

// Log logs a message
func Log(args ...interface{}) {
	log.Println(args...)
}

// Logf logs a formatted message
func Logf(format string, args ...interface{}) {
	log.Println(fmt.Sprintf(format, args...))
}
