package common

import (
	"bytes"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		input   string
		want    slog.Level
		wantErr bool
	}{
		{input: "debug", want: slog.LevelDebug},
		{input: " INFO ", want: slog.LevelInfo},
		{input: "", want: slog.LevelInfo},
		{input: "warning", want: slog.LevelWarn},
		{input: "error", want: slog.LevelError},
		{input: "loud", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLevel(tt.input)
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidConfig)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNewHandler(t *testing.T) {
	for _, format := range []string{"console", "json", "text"} {
		t.Run(format, func(t *testing.T) {
			var buf bytes.Buffer
			h, err := NewHandler(&buf, slog.LevelInfo, format)
			require.NoError(t, err)

			logger := slog.New(h)
			logger.Debug("hidden")
			logger.Info("classified", "sender", "VM-HDFCBK")

			assert.NotContains(t, buf.String(), "hidden")
			assert.Contains(t, buf.String(), "classified")
			assert.Contains(t, buf.String(), "VM-HDFCBK")
		})
	}

	_, err := NewHandler(&bytes.Buffer{}, slog.LevelInfo, "xml")
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLogError(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	var buf bytes.Buffer
	handler, err := NewHandler(&buf, slog.LevelInfo, "json")
	require.NoError(t, err)
	slog.SetDefault(slog.New(handler))

	LogError(errors.New("truncated file"), "Failed to read backup", Fields{"file": "sms.xml"})

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "ERROR", entry["level"])
	assert.Equal(t, "Failed to read backup", entry["msg"])
	assert.Equal(t, "truncated file", entry["error"])
	assert.Equal(t, "sms.xml", entry["file"])
}

func TestUserError(t *testing.T) {
	cause := errors.New("no such file")
	err := NewUserError("could not load rules", cause)

	assert.Equal(t, "could not load rules: no such file", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.True(t, IsUserFacing(err))
	assert.False(t, IsUserFacing(cause))

	assert.Equal(t, "nothing to do", NewUserError("nothing to do", nil).Error())
}

func TestPatternError(t *testing.T) {
	err := &PatternError{Rule: 2, Pattern: 1, Regex: "[x", Err: ErrMalformedPattern}
	assert.Equal(t, `rule 2 pattern 1 ("[x"): malformed pattern`, err.Error())
	assert.ErrorIs(t, err, ErrMalformedPattern)
}
