// Package logger provides levelled logging for docqa.
// Info, Warn and Error always print. Debug and Section only print in
// verbose mode, enabled via the --verbose flag, to trace the pipeline.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
)

// TimeFormat is the timestamp layout at the start of every line.
const TimeFormat = "2006-01-02 15:04:05"

var (
	mu      sync.RWMutex
	verbose bool
	colour  = !color.NoColor
	output  io.Writer = os.Stderr
	now               = time.Now
)

var levelColours = map[string]*color.Color{
	"DEBUG":   color.New(color.FgHiBlack),
	"INFO":    color.New(color.FgCyan),
	"WARNING": color.New(color.FgYellow),
	"ERROR":   color.New(color.FgRed, color.Bold),
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
}

// SetColour enables or disables coloured level tags.
// Colour is on by default when stdout is a terminal.
func SetColour(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	colour = enabled
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		write("DEBUG", format, args...)
	}
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message.
func Info(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write("INFO", format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write("WARNING", format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	mu.RLock()
	defer mu.RUnlock()
	write("ERROR", format, args...)
}

// write formats one line. Callers hold mu.
func write(level, format string, args ...any) {
	tag := level
	if colour {
		tag = levelColours[level].Sprint(level)
	}
	fmt.Fprintf(output, "%s - %s - %s\n", now().Format(TimeFormat), tag, fmt.Sprintf(format, args...))
}
