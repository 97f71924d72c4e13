// Package errors provides the structured error taxonomy of the codestart engine.
//
// Overview:
//   - Responsibility: Classify generation failures and carry diagnostic context
//   - Key Types: Code for classification, E for structured errors, Detail for context
//   - Concurrency Model: All functions are safe for concurrent use
//   - Error Semantics: Compatible with standard library error wrapping
//   - Performance Notes: Errors are built once on the failure path only
//
// Usage:
//
//	err := errors.New(errors.CodeUnknownExtension, "unknown extension")
//	err = errors.Build(errors.CodeFileConflict).WithMsg("two writers").WithDetail("path", "pom.xml").Err()
//	code := errors.CodeOf(err)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents an error classification code.
type Code string

// Generation error codes.
const (
	CodeUnsupportedBuildTool  Code = "UNSUPPORTED_BUILD_TOOL"
	CodeUnsupportedLanguage   Code = "UNSUPPORTED_LANGUAGE"
	CodeUnknownExtension      Code = "UNKNOWN_EXTENSION"
	CodeIncompatibleExtension Code = "INCOMPATIBLE_EXTENSION"
	CodeDependencyCycle       Code = "DEPENDENCY_CYCLE"
	CodeTemplateError         Code = "TEMPLATE_ERROR"
	CodeFileConflict          Code = "FILE_CONFLICT"
	CodeUnknownInsertionPoint Code = "UNKNOWN_INSERTION_POINT"
	CodeIOError               Code = "IO_ERROR"
	CodeInvalidRequest        Code = "INVALID_REQUEST"
	CodeCatalogError          Code = "CATALOG_ERROR"
	CodeInternal              Code = "INTERNAL"
)

// Detail is a single piece of diagnostic context such as a codestart id or file path.
type Detail struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

// E represents a structured error with code, operation, message, and details.
type E struct {
	Code    Code     // Error classification code
	Op      string   // Operation that failed
	Err     error    // Underlying error (may be nil)
	Msg     string   // Human-readable message
	Details []Detail // Identifying context (codestart, path, extension, ...)
}

// Error implements the error interface.
func (e *E) Error() string {
	var b strings.Builder
	b.WriteString(string(e.Code))
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if len(e.Details) > 0 {
		b.WriteString(" [")
		for i, d := range e.Details {
			if i > 0 {
				b.WriteString(" ")
			}
			fmt.Fprintf(&b, "%s=%s", d.Key, d.Value)
		}
		b.WriteString("]")
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

// Unwrap returns the underlying error for error unwrapping.
func (e *E) Unwrap() error {
	return e.Err
}

// Detail returns the value recorded under key.
func (e *E) Detail(key string) (string, bool) {
	for _, d := range e.Details {
		if d.Key == key {
			return d.Value, true
		}
	}
	return "", false
}

// New creates a new structured error with the given code and message.
func New(code Code, msg string) error {
	return &E{
		Code: code,
		Msg:  msg,
	}
}

// Wrap creates a new structured error wrapping an existing error.
// The operation name helps identify where the error occurred.
func Wrap(code Code, op string, err error) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
	}
}

// Wrapf creates a new structured error wrapping an existing error with formatted message.
func Wrapf(code Code, op string, err error, format string, args ...any) error {
	return &E{
		Code: code,
		Op:   op,
		Err:  err,
		Msg:  fmt.Sprintf(format, args...),
	}
}

// CodeOf extracts the error code from an error.
// Returns empty string if the error doesn't have a code.
func CodeOf(err error) Code {
	var e *E
	if err != nil && errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// IsCode checks if an error has a specific code.
func IsCode(err error, code Code) bool {
	return CodeOf(err) == code
}

// DetailOf returns the detail recorded under key on the first *E in the chain.
func DetailOf(err error, key string) string {
	var e *E
	if err != nil && errors.As(err, &e) {
		v, _ := e.Detail(key)
		return v
	}
	return ""
}

// As is a convenience wrapper around the standard library's errors.As.
func As(err error, target any) bool {
	return errors.As(err, target)
}

// Is is a convenience wrapper around the standard library's errors.Is.
func Is(err error, target error) bool {
	return errors.Is(err, target)
}

// Builder provides a fluent interface for constructing errors.
type Builder struct {
	code    Code
	op      string
	err     error
	msg     string
	details []Detail
}

// Build constructs a new error with the builder's configuration.
func Build(code Code) *Builder {
	return &Builder{code: code}
}

// WithOp sets the operation that failed.
func (b *Builder) WithOp(op string) *Builder {
	b.op = op
	return b
}

// WithErr wraps an underlying error.
func (b *Builder) WithErr(err error) *Builder {
	b.err = err
	return b
}

// WithMsg sets a human-readable message.
func (b *Builder) WithMsg(msg string) *Builder {
	b.msg = msg
	return b
}

// WithMsgf sets a formatted human-readable message.
func (b *Builder) WithMsgf(format string, args ...any) *Builder {
	b.msg = fmt.Sprintf(format, args...)
	return b
}

// WithDetail records a key/value pair of diagnostic context.
func (b *Builder) WithDetail(key, value string) *Builder {
	b.details = append(b.details, Detail{Key: key, Value: value})
	return b
}

// Err builds and returns the error.
func (b *Builder) Err() error {
	return &E{
		Code:    b.code,
		Op:      b.op,
		Err:     b.err,
		Msg:     b.msg,
		Details: b.details,
	}
}

// Body is the wire form of an error for JSON responses and CLI output.
type Body struct {
	Error   Code     `json:"error"`
	Message string   `json:"message"`
	Details []Detail `json:"details,omitempty"`
}

// BodyOf converts err to its wire form. Uncoded errors report CodeInternal.
func BodyOf(err error) Body {
	var e *E
	if !errors.As(err, &e) {
		return Body{Error: CodeInternal, Message: err.Error()}
	}
	msg := e.Msg
	if e.Err != nil {
		if msg != "" {
			msg += ": "
		}
		msg += e.Err.Error()
	}
	return Body{Error: e.Code, Message: msg, Details: append([]Detail(nil), e.Details...)}
}
