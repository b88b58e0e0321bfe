package core

// Part represents a polymorphic segment of role-based content. Concrete part
// types implement the unexported isPart marker enabling a closed set.
type Part interface{ isPart() }

// TextPart is a plain text content segment.
type TextPart struct {
	Text string // Plain UTF-8 text
}

// isPart implements the Part interface for TextPart.
func (TextPart) isPart() {}

// FilePart is an opaque binary attachment (e.g. an image or PDF handed to a
// vision / document capable model). The payload is forwarded to the provider
// adapter as-is; adapters that cannot represent the media type must fail
// rather than silently drop it.
type FilePart struct {
	Data      []byte // Raw payload bytes
	MediaType string // IANA media type, e.g. "image/png", "application/pdf"
	Name      string // Optional filename hint
}

// isPart implements the Part interface for FilePart.
func (FilePart) isPart() {}

// FunctionCall describes a tool/function invocation request surfaced by a model.
type FunctionCall struct {
	ID        string `json:"id,omitempty"`        // Provider-assigned id (generated if absent)
	Name      string `json:"name"`                // Tool / function name
	Arguments string `json:"arguments,omitempty"` // Serialized JSON argument payload
}

// FunctionCallPart wraps a FunctionCall as a content part.
type FunctionCallPart struct {
	FunctionCall FunctionCall
}

// isPart implements the Part interface for FunctionCallPart.
func (FunctionCallPart) isPart() {}

// FunctionResponse describes the outcome of a function call.
type FunctionResponse struct {
	ID       string      `json:"id,omitempty"`       // Matches originating FunctionCall ID
	Name     string      `json:"name"`               // Function name
	Response interface{} `json:"response,omitempty"` // Successful result (any JSON-serializable shape)
	Error    string      `json:"error,omitempty"`    // Populated on failure
}

// FunctionResponsePart wraps a FunctionResponse as a content part.
type FunctionResponsePart struct {
	FunctionResponse FunctionResponse
}

// isPart implements the Part interface for FunctionResponsePart.
func (FunctionResponsePart) isPart() {}

// Content holds role + ordered parts.
type Content struct {
	Role  string `json:"role,omitempty"` // Conversation role (user, assistant, tool, system)
	Parts []Part `json:"parts"`          // Ordered heterogeneous parts
}

// NewUserContent is a convenience constructor for a single-text user message.
func NewUserContent(text string) Content {
	return Content{Role: "user", Parts: []Part{TextPart{Text: text}}}
}

// NewSystemContent is a convenience constructor for a system instruction.
func NewSystemContent(text string) Content {
	return Content{Role: "system", Parts: []Part{TextPart{Text: text}}}
}

// Text concatenates all text parts of the content in order.
func (c Content) Text() string {
	var out string
	for _, p := range c.Parts {
		if tp, ok := p.(TextPart); ok {
			out += tp.Text
		}
	}
	return out
}

// FunctionCalls extracts all function call parts of the content in order.
func (c Content) FunctionCalls() []FunctionCall {
	var calls []FunctionCall
	for _, p := range c.Parts {
		if fc, ok := p.(FunctionCallPart); ok {
			calls = append(calls, fc.FunctionCall)
		}
	}
	return calls
}
