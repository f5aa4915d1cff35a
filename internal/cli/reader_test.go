package cli

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLineReader_ReadLine(t *testing.T) {
	tests := []struct {
		name          string
		input         string
		expectedValue string
		expectError   bool
	}{
		{
			name:          "successful read",
			input:         "Rs.500 debited\n",
			expectedValue: "Rs.500 debited",
		},
		{
			name:          "read with extra whitespace",
			input:         "  Rs.500 debited  \n",
			expectedValue: "Rs.500 debited",
		},
		{
			name:          "empty line",
			input:         "\n",
			expectedValue: "",
		},
		{
			name:          "final line without newline",
			input:         "INR 20 credited",
			expectedValue: "INR 20 credited",
		},
		{
			name:        "exhausted input",
			input:       "",
			expectError: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lr := NewLineReader(strings.NewReader(tt.input))

			result, err := lr.ReadLine(context.Background())

			if tt.expectError {
				assert.ErrorIs(t, err, io.EOF)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.expectedValue, result)
		})
	}
}

func TestLineReader_ContextCancellation(t *testing.T) {
	t.Run("immediate cancellation", func(t *testing.T) {
		lr := NewLineReader(strings.NewReader("line\n"))

		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		_, err := lr.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})

	t.Run("cancellation during read", func(t *testing.T) {
		pr, pw := io.Pipe()
		defer func() { _ = pr.Close() }()
		defer func() { _ = pw.Close() }()

		lr := NewLineReader(pr)

		ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
		defer cancel()

		_, err := lr.ReadLine(ctx)
		assert.Equal(t, ErrInputCancelled, err)
	})
}

func TestLineReader_ReadAll(t *testing.T) {
	lr := NewLineReader(strings.NewReader("line1\n\n  line2\nline3"))

	lines, err := lr.ReadAll(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"line1", "line2", "line3"}, lines)
}

func TestNewLineReader_NilPanics(t *testing.T) {
	assert.Panics(t, func() { NewLineReader(nil) })
}
