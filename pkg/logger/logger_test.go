package logger

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"DEBUG":   slog.LevelDebug,
		"warning": slog.LevelWarn,
		" error ": slog.LevelError,
		"bogus":   slog.LevelInfo,
	}
	for in, want := range tests {
		require.Equal(t, want, parseLevel(in).Level(), "level %q", in)
	}
}

func TestNewWithWriterJSONCarriesService(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "info", "")
	log.Info("hello", "k", "v")

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	require.Equal(t, "derma-advisor", record["service"])
	require.Equal(t, "hello", record["msg"])
	require.Equal(t, "v", record["k"])
}

func TestNewWithWriterTextFormat(t *testing.T) {
	var buf bytes.Buffer
	log := newWithWriter(&buf, "debug", "text")
	log.Debug("visible")
	require.Contains(t, buf.String(), "msg=visible")
	require.Contains(t, buf.String(), "service=derma-advisor")
}
