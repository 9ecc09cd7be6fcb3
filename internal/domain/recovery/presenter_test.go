package recovery

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPresentSuccess(t *testing.T) {
	env := Presenter{UpstreamMessage: "failed to analyze mole"}.Present(Success{Result: pair{A: 1, B: 2}})
	require.True(t, env.OK())
	require.Equal(t, pair{A: 1, B: 2}, env.Result)
	require.Empty(t, env.Error)
	require.Empty(t, env.Content)
}

func TestPresentFallbackKeepsRawText(t *testing.T) {
	for _, kind := range []FallbackKind{FallbackStructural, FallbackParse} {
		env := Presenter{}.Present(Fallback{Raw: "garbled {", Kind: kind, Err: errors.New("x")})
		require.Equal(t, StatusUpstreamParseError, env.Status)
		require.Equal(t, MessageParseFailure, env.Error)
		require.Equal(t, "garbled {", env.Content)
		require.Nil(t, env.Result)
	}
}

func TestPresentUpstreamFailure(t *testing.T) {
	env := Presenter{UpstreamMessage: "failed to generate skincare plan"}.Present(UpstreamFailure{Reason: ReasonNoResponse})
	require.Equal(t, StatusUpstreamError, env.Status)
	require.Equal(t, "failed to generate skincare plan", env.Error)
	require.Equal(t, "no response", env.Details)
	require.Empty(t, env.Content)
}

func TestPresentUnknownOutcome(t *testing.T) {
	env := Presenter{}.Present(nil)
	require.Equal(t, StatusUpstreamError, env.Status)
	require.Equal(t, "completion service failed", env.Error)
}

func TestEnvelopeJSON(t *testing.T) {
	env := Presenter{}.Present(Success{Result: map[string]string{"type": "Melanoma"}})
	raw, err := json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"ok","result":{"type":"Melanoma"}}`, string(raw))

	env = Presenter{}.Present(Fallback{Raw: "oops", Kind: FallbackStructural})
	raw, err = json.Marshal(env)
	require.NoError(t, err)
	require.JSONEq(t, `{"status":"upstream-parse-error","error":"failed to parse JSON response","content":"oops","details":"structural"}`, string(raw))
}

func TestPresentFallbackTagsReason(t *testing.T) {
	structural := Presenter{}.Present(Recover[pair]("no json here"))
	require.Equal(t, ErrInvalidStructure.Error(), structural.Details)

	parse := Presenter{}.Present(Recover[pair](`{"a": oops}`))
	require.Equal(t, StatusUpstreamParseError, parse.Status)
	require.NotEmpty(t, parse.Details)
	require.NotEqual(t, structural.Details, parse.Details)
	require.Equal(t, `{"a": oops}`, parse.Content)
}
