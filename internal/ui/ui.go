// Package ui provides unified output formatting for the codestart CLI.
//
// Overview:
//   - Responsibility: Leveled user-facing messages, step indicators, structured data output
//   - Key Types: Message, OutputLevel
//   - Concurrency Model: Thread-safe output operations
//   - Error Semantics: User-friendly error messages; coded errors print their details
//   - Performance Notes: Unbuffered writes, minimal allocations
//
// Usage:
//
//	ui.Info("Generating %s", artifactID)
//	ui.Error("Failed to create project: %v", err)
package ui

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"

	"go.eggybyte.com/codestart/internal/errors"
)

var (
	verbose    bool
	jsonOutput bool
	stdout     io.Writer = os.Stdout
	stderr     io.Writer = os.Stderr
	mu         sync.RWMutex
)

// OutputLevel represents the severity level of a message.
type OutputLevel string

const (
	LevelDebug   OutputLevel = "debug"
	LevelInfo    OutputLevel = "info"
	LevelWarning OutputLevel = "warning"
	LevelError   OutputLevel = "error"
	LevelSuccess OutputLevel = "success"
)

var prefixes = map[OutputLevel]*color.Color{
	LevelDebug:   color.New(color.FgMagenta),
	LevelInfo:    color.New(color.FgCyan),
	LevelWarning: color.New(color.FgYellow, color.Bold),
	LevelError:   color.New(color.FgRed, color.Bold),
	LevelSuccess: color.New(color.FgGreen, color.Bold),
}

var labels = map[OutputLevel]string{
	LevelDebug:   "DEBUG:",
	LevelInfo:    "INFO:",
	LevelWarning: "WARN:",
	LevelError:   "ERROR:",
	LevelSuccess: "SUCCESS:",
}

// Message represents a structured output message.
//
// Parameters:
//   - Level: Message severity level
//   - Text: Human-readable message content
//   - Data: Optional structured data for JSON output
//   - Timestamp: When the message was created
//
// Returns:
//   - None (data structure)
//
// Concurrency:
//   - Safe for concurrent access
//
// Performance:
//   - Minimal memory allocation
type Message struct {
	Level     OutputLevel `json:"level"`
	Text      string      `json:"text"`
	Data      any         `json:"data,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// SetVerbose enables or disables debug messages.
func SetVerbose(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = enabled
}

// SetJSONOutput enables JSON-formatted output.
func SetJSONOutput(enabled bool) {
	mu.Lock()
	defer mu.Unlock()
	jsonOutput = enabled
}

// JSONOutput reports whether JSON mode is on.
func JSONOutput() bool {
	mu.RLock()
	defer mu.RUnlock()
	return jsonOutput
}

// SetOutput redirects normal and error output. Nil keeps the current writer.
//
// Parameters:
//   - out: Writer for everything except errors
//   - errOut: Writer for errors
//
// Returns:
//   - func(): Restores the previous writers
//
// Concurrency:
//   - Thread-safe
//
// Performance:
//   - O(1) operation
func SetOutput(out, errOut io.Writer) func() {
	mu.Lock()
	defer mu.Unlock()
	prevOut, prevErr := stdout, stderr
	if out != nil {
		stdout = out
	}
	if errOut != nil {
		stderr = errOut
	}
	return func() {
		mu.Lock()
		defer mu.Unlock()
		stdout, stderr = prevOut, prevErr
	}
}

// output writes a message to the appropriate output stream.
//
// Parameters:
//   - level: Message severity level
//   - data: Optional structured payload, JSON mode only
//   - format: Printf-style format string
//   - args: Format arguments
//
// Returns:
//   - None
//
// Concurrency:
//   - Thread-safe
//
// Performance:
//   - Minimal allocations
func output(level OutputLevel, data any, format string, args ...any) {
	mu.RLock()
	useJSON := jsonOutput
	useVerbose := verbose
	out, errOut := stdout, stderr
	mu.RUnlock()

	if level == LevelDebug && !useVerbose {
		return
	}

	text := fmt.Sprintf(format, args...)
	if useJSON {
		message := Message{
			Level:     level,
			Text:      text,
			Data:      data,
			Timestamp: time.Now(),
		}
		encoder := json.NewEncoder(out)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(message); err != nil {
			fmt.Fprintf(errOut, "Failed to encode JSON output: %v\n", err)
		}
		return
	}

	writer := out
	if level == LevelError {
		writer = errOut
	}
	fmt.Fprintf(writer, "%s %s\n", prefixes[level].Sprint(labels[level]), text)
}

// Debug outputs a debug message, shown only in verbose mode.
func Debug(format string, args ...any) {
	output(LevelDebug, nil, format, args...)
}

// Info outputs an informational message.
func Info(format string, args ...any) {
	output(LevelInfo, nil, format, args...)
}

// Warning outputs a warning message.
func Warning(format string, args ...any) {
	output(LevelWarning, nil, format, args...)
}

// Error outputs an error message to stderr.
func Error(format string, args ...any) {
	output(LevelError, nil, format, args...)
}

// Success outputs a success message.
func Success(format string, args ...any) {
	output(LevelSuccess, nil, format, args...)
}

// Result outputs a success message carrying structured data. In text mode only the text is printed.
func Result(data any, format string, args ...any) {
	output(LevelSuccess, data, format, args...)
}

// Step outputs a step indicator with message.
//
// Parameters:
//   - step: Step number
//   - total: Total number of steps
//   - format: Printf-style format string
//   - args: Format arguments
//
// Returns:
//   - None
//
// Concurrency:
//   - Thread-safe
//
// Performance:
//   - Minimal formatting overhead
func Step(step, total int, format string, args ...any) {
	mu.RLock()
	useJSON := jsonOutput
	out := stdout
	mu.RUnlock()

	if useJSON {
		Info(format, args...)
		return
	}

	text := fmt.Sprintf(format, args...)
	fmt.Fprintf(out, "  %s %s\n", color.New(color.Faint).Sprintf("[%d/%d]", step, total), text)
}

// Fail prints err with its code and details. Uncoded errors print their message only.
func Fail(err error) {
	var e *errors.E
	if !errors.As(err, &e) {
		Error("%v", err)
		return
	}

	if JSONOutput() {
		output(LevelError, errors.BodyOf(err), "%s: %s", e.Code, e.Msg)
		return
	}

	Error("%s: %s", e.Code, e.Msg)
	for _, d := range e.Details {
		Error("  %s: %s", d.Key, d.Value)
	}
	if e.Err != nil {
		Error("  cause: %v", e.Err)
	}
}
