package tool

import (
	"encoding/json"
	"strings"

	"github.com/wilhg/toolsrv/pkg/errmodel"
)

// Content is one typed item of a result envelope.
type Content interface {
	contentType() string
}

// TextContent is plain text.
type TextContent struct {
	Text string
}

// ImageContent is binary image data with its MIME type.
type ImageContent struct {
	Data     []byte
	MIMEType string
}

// ResourceContent embeds a text resource addressed by URI.
type ResourceContent struct {
	URI      string
	MIMEType string
	Text     string
}

func (TextContent) contentType() string     { return "text" }
func (ImageContent) contentType() string    { return "image" }
func (ResourceContent) contentType() string { return "resource" }

// Result is the envelope returned for every call. Exactly one shape is produced:
// success (IsError false, Kind empty) or failure (IsError true, Kind set, one text item).
type Result struct {
	Content []Content
	IsError bool
	Kind    errmodel.Kind
}

// Ok wraps handler output into a success envelope.
func Ok(content ...Content) Result {
	return Result{Content: content}
}

// Text is shorthand for a success envelope holding a single text item.
func Text(s string) Result {
	return Ok(TextContent{Text: s})
}

// Fail builds a failure envelope with a single text item.
func Fail(kind errmodel.Kind, message string) Result {
	if kind == "" {
		kind = errmodel.KindExecution
	}
	if strings.TrimSpace(message) == "" {
		message = "tool call failed"
	}
	return Result{Content: []Content{TextContent{Text: message}}, IsError: true, Kind: kind}
}

// FailErr builds a failure envelope from any error.
func FailErr(err error) Result {
	ce := errmodel.From(err)
	if ce == nil {
		return Fail(errmodel.KindExecution, "")
	}
	return Fail(ce.Kind, ce.Message)
}

// FirstText returns the text of the first text item, or "".
func (r Result) FirstText() string {
	for _, c := range r.Content {
		if t, ok := c.(TextContent); ok {
			return t.Text
		}
	}
	return ""
}

type wireResource struct {
	URI      string `json:"uri"`
	MIMEType string `json:"mimeType,omitempty"`
	Text     string `json:"text"`
}

type wireContent struct {
	Type     string        `json:"type"`
	Text     *string       `json:"text,omitempty"`
	Data     []byte        `json:"data,omitempty"`
	MIMEType string        `json:"mimeType,omitempty"`
	Resource *wireResource `json:"resource,omitempty"`
}

type wireResult struct {
	Content []wireContent `json:"content"`
	IsError bool          `json:"isError,omitempty"`
}

const marshalFallback = `{"content":[{"type":"text","text":"Internal error: failed to marshal result"}],"isError":true}`

// MarshalJSON renders the MCP tools/call result shape. It never fails: if encoding
// breaks, a fixed failure envelope is emitted instead.
func (r Result) MarshalJSON() ([]byte, error) {
	w := wireResult{Content: make([]wireContent, 0, len(r.Content)), IsError: r.IsError}
	for _, c := range r.Content {
		switch v := c.(type) {
		case TextContent:
			text := v.Text
			w.Content = append(w.Content, wireContent{Type: "text", Text: &text})
		case ImageContent:
			w.Content = append(w.Content, wireContent{Type: "image", Data: v.Data, MIMEType: v.MIMEType})
		case ResourceContent:
			w.Content = append(w.Content, wireContent{Type: "resource", Resource: &wireResource{URI: v.URI, MIMEType: v.MIMEType, Text: v.Text}})
		}
	}
	b, err := json.Marshal(w)
	if err != nil {
		return []byte(marshalFallback), nil
	}
	return b, nil
}
