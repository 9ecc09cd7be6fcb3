// Package recovery turns free-form completion text into a typed JSON result and
// classifies every attempt into exactly one Outcome.
package recovery

import (
	"encoding/json"
	"errors"
	"strings"
)

// ReasonNoResponse is the UpstreamFailure reason for empty completions.
const ReasonNoResponse = "no response"

// ErrInvalidStructure is reported when the text contains no closing brace at all.
var ErrInvalidStructure = errors.New("invalid JSON structure")

// Outcome is one of Success, Fallback or UpstreamFailure.
type Outcome interface {
	outcome()
}

// Success carries the decoded result. Result holds a value of the type passed to Recover.
type Success struct {
	Result any
}

// FallbackKind tells structural failures (no candidate body) from parse failures.
type FallbackKind int

const (
	// FallbackStructural means no closing brace was found.
	FallbackStructural FallbackKind = iota + 1
	// FallbackParse means the candidate body was not valid JSON for the expected shape.
	FallbackParse
)

func (k FallbackKind) String() string {
	switch k {
	case FallbackStructural:
		return "structural"
	case FallbackParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Fallback keeps the raw completion verbatim so callers can show it.
type Fallback struct {
	Raw  string
	Kind FallbackKind
	Err  error
}

// Reason describes why recovery failed.
func (f Fallback) Reason() string {
	if f.Err == nil {
		return f.Kind.String()
	}
	return f.Err.Error()
}

// UpstreamFailure means no usable text came back from the completion service.
type UpstreamFailure struct {
	Reason string
}

func (Success) outcome()         {}
func (Fallback) outcome()        {}
func (UpstreamFailure) outcome() {}

// Recover cuts text at its last '}' and decodes the prefix into a T.
//
// Braces are not balanced: a '}' inside a string value can become the cut
// point when no structural brace follows it.
func Recover[T any](text string) Outcome {
	if strings.TrimSpace(text) == "" {
		return UpstreamFailure{Reason: ReasonNoResponse}
	}

	end := strings.LastIndex(text, "}")
	if end == -1 {
		return Fallback{Raw: text, Kind: FallbackStructural, Err: ErrInvalidStructure}
	}

	var result T
	if err := json.Unmarshal([]byte(text[:end+1]), &result); err != nil {
		return Fallback{Raw: text, Kind: FallbackParse, Err: err}
	}
	return Success{Result: result}
}

// Failed wraps a transport error as an UpstreamFailure.
func Failed(err error) Outcome {
	if err == nil {
		return UpstreamFailure{Reason: "unknown upstream failure"}
	}
	return UpstreamFailure{Reason: err.Error()}
}

// Kind names the variant for logs.
func Kind(o Outcome) string {
	switch v := o.(type) {
	case Success:
		return "success"
	case Fallback:
		return "fallback_" + v.Kind.String()
	case UpstreamFailure:
		return "upstream_failure"
	default:
		return "unknown"
	}
}
