package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExpandPath(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	t.Setenv("SMSPICE_PATH_TEST", "/opt/sms")

	tests := []struct {
		input string
		want  string
	}{
		{input: "", want: ""},
		{input: "~", want: home},
		{input: "~/rules.yaml", want: filepath.Join(home, "rules.yaml")},
		{input: "$SMSPICE_PATH_TEST/rules.yaml", want: "/opt/sms/rules.yaml"},
		{input: "/abs/path.db", want: "/abs/path.db"},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			assert.Equal(t, tt.want, ExpandPath(tt.input))
		})
	}
}
