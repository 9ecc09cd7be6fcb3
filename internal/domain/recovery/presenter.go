package recovery

import "github.com/yanqian/derma-advisor/pkg/metrics"

// Status is the caller-facing state of an Envelope.
type Status string

const (
	StatusOK                 Status = "ok"
	StatusUpstreamParseError Status = "upstream-parse-error"
	StatusUpstreamError      Status = "upstream-error"
)

// MessageParseFailure is the error marker for Fallback envelopes.
const MessageParseFailure = "failed to parse JSON response"

// Envelope is the response body returned to API consumers.
type Envelope struct {
	Status     Status              `json:"status"`
	Result     any                 `json:"result,omitempty"`
	Error      string              `json:"error,omitempty"`
	Content    string              `json:"content,omitempty"`
	Details    string              `json:"details,omitempty"`
	DurationMs int64               `json:"durationMs,omitempty"`
	TokenUsage *metrics.TokenUsage `json:"tokenUsage,omitempty"`
}

// OK reports whether the envelope carries a structured result.
func (e Envelope) OK() bool {
	return e.Status == StatusOK
}

// Presenter maps outcomes to envelopes. UpstreamMessage is the error marker
// used for UpstreamFailure, e.g. "failed to analyze mole".
type Presenter struct {
	UpstreamMessage string
}

// Present is total over Outcome.
func (p Presenter) Present(o Outcome) Envelope {
	switch v := o.(type) {
	case Success:
		return Envelope{Status: StatusOK, Result: v.Result}
	case Fallback:
		return Envelope{Status: StatusUpstreamParseError, Error: MessageParseFailure, Content: v.Raw, Details: v.Reason()}
	case UpstreamFailure:
		return Envelope{Status: StatusUpstreamError, Error: p.upstreamMessage(), Details: v.Reason}
	default:
		return Envelope{Status: StatusUpstreamError, Error: p.upstreamMessage(), Details: "unrecognized outcome"}
	}
}

func (p Presenter) upstreamMessage() string {
	if p.UpstreamMessage == "" {
		return "completion service failed"
	}
	return p.UpstreamMessage
}
