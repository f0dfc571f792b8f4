// Package errmodel defines the compact error used across the dispatch path.
// Every failure that reaches the caller carries exactly one Kind; the kind is the
// only place where "expected" (not found, bad input) and "unexpected" faults differ.
package errmodel

import (
	"encoding/json"
	"errors"
	"strings"
	"unicode/utf8"
)

// Kind tags the failure taxonomy surfaced in failure envelopes.
type Kind string

const (
	KindToolNotFound Kind = "tool_not_found"
	KindValidation   Kind = "validation"
	KindNotFound     Kind = "not_found"
	KindIO           Kind = "io"
	KindExecution    Kind = "execution"
)

// Error is the compact error payload returned by handlers and the dispatcher.
// It implements the error interface.
type Error struct {
	Kind    Kind           `json:"kind"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Context map[string]any `json:"context,omitempty"`

	cause error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Code != "" {
		return e.Code + ": " + e.Message
	}
	return e.Message
}

// Unwrap exposes the wrapped cause to errors.Is / errors.As.
func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.cause
}

// New constructs a new compact error.
func New(kind Kind, code, message string, ctx map[string]any, cause error) *Error {
	ce := &Error{Kind: kind, Code: code, Message: truncate(message, 512), cause: cause}
	if len(ctx) > 0 {
		ce.Context = truncateContext(ctx)
	}
	return ce
}

// From converts any error into a compact Error. If err already wraps an *Error, that
// error is returned as-is; anything else becomes an execution fault.
func From(err error) *Error {
	var ce *Error
	if err == nil {
		return nil
	}
	if errors.As(err, &ce) {
		return ce
	}
	return &Error{Kind: KindExecution, Code: "internal", Message: truncate(err.Error(), 512), cause: err}
}

// Convenience constructors.

func ToolNotFound(name string) *Error {
	return New(KindToolNotFound, "unknown_tool", "Unknown tool: "+name, map[string]any{"tool": name}, nil)
}

func Validation(code, message string, ctx map[string]any) *Error {
	return New(KindValidation, code, message, ctx, nil)
}

func NotFound(code, message string, ctx map[string]any, cause error) *Error {
	return New(KindNotFound, code, message, ctx, cause)
}

func IO(code, message string, ctx map[string]any, cause error) *Error {
	return New(KindIO, code, message, ctx, cause)
}

func Execution(code, message string, ctx map[string]any, cause error) *Error {
	return New(KindExecution, code, message, ctx, cause)
}

// IsKind checks if err belongs to a specific kind.
func IsKind(err error, kind Kind) bool {
	ce := From(err)
	return ce != nil && strings.EqualFold(string(ce.Kind), string(kind))
}

// truncate trims a string to max characters.
func truncate(s string, max int) string {
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:runeCut(s, max)]
	}
	return s[:runeCut(s, max-3)] + "..."
}

// runeCut backs n off to the start of a rune so a cut never splits one.
func runeCut(s string, n int) int {
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return n
}

// truncateContext trims long string values in the context map.
func truncateContext(ctx map[string]any) map[string]any {
	out := make(map[string]any, len(ctx))
	for k, v := range ctx {
		switch t := v.(type) {
		case string:
			out[k] = truncate(t, 256)
		case nil, bool, int, int64, float64:
			out[k] = t
		default:
			b, err := json.Marshal(t)
			if err == nil && len(b) > 0 {
				out[k] = truncate(string(b), 256)
			} else {
				out[k] = t
			}
		}
	}
	return out
}
