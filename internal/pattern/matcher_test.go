package pattern

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompile(t *testing.T) {
	tests := []struct {
		name        string
		source      string
		wantLiteral string
		errMsg      string
		wantFlags   Flags
		wantErr     bool
	}{
		{
			name:        "plain pattern",
			source:      `debited`,
			wantLiteral: `debited`,
		},
		{
			name:        "case insensitive marker is stripped",
			source:      `(?i)rs\.?\s?(\d+)`,
			wantLiteral: `rs\.?\s?(\d+)`,
			wantFlags:   Flags{CaseInsensitive: true},
		},
		{
			name:        "repeated marker collapses",
			source:      `(?i)(?i)otp`,
			wantLiteral: `otp`,
			wantFlags:   Flags{CaseInsensitive: true},
		},
		{
			name:    "invalid regex",
			source:  `[unterminated`,
			wantErr: true,
			errMsg:  "failed to compile pattern",
		},
		{
			name:    "lookahead is not supported",
			source:  `(?=debited)`,
			wantErr: true,
		},
		{
			name:    "marker only",
			source:  `(?i)`,
			wantErr: true,
			errMsg:  "empty pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := Compile(tt.source)
			if tt.wantErr {
				require.Error(t, err)
				if tt.errMsg != "" {
					assert.Contains(t, err.Error(), tt.errMsg)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.source, m.Source())
			assert.Equal(t, tt.wantLiteral, m.Literal())
			assert.Equal(t, tt.wantFlags, m.Flags())
		})
	}
}

func TestMatcher_TryMatch(t *testing.T) {
	t.Run("case insensitive flag applies", func(t *testing.T) {
		m := MustCompile(`(?i)rs\.?(\d+) (debited)`)
		caps, ok := m.TryMatch("RS.500 DEBITED from a/c")
		require.True(t, ok)
		assert.Equal(t, 3, caps.Len())
		assert.Equal(t, "RS.500 DEBITED", caps.Whole())

		amount, matched := caps.Group(1)
		assert.True(t, matched)
		assert.Equal(t, "500", amount)
	})

	t.Run("case sensitive without marker", func(t *testing.T) {
		m := MustCompile(`debited`)
		_, ok := m.TryMatch("DEBITED")
		assert.False(t, ok)
	})

	t.Run("first match only", func(t *testing.T) {
		m := MustCompile(`Rs\.(\d+)`)
		caps, ok := m.TryMatch("Rs.100 then Rs.200")
		require.True(t, ok)
		got, _ := caps.Group(1)
		assert.Equal(t, "100", got)
	})

	t.Run("optional group that did not participate", func(t *testing.T) {
		m := MustCompile(`paid(?: to (\w+))?`)
		caps, ok := m.TryMatch("paid")
		require.True(t, ok)
		assert.Equal(t, 2, caps.Len())
		text, matched := caps.Group(1)
		assert.False(t, matched)
		assert.Empty(t, text)
	})

	t.Run("out of range group", func(t *testing.T) {
		caps := NewCaptureSet("whole", "one")
		_, matched := caps.Group(2)
		assert.False(t, matched)
		_, matched = caps.Group(-1)
		assert.False(t, matched)
	})

	t.Run("no match", func(t *testing.T) {
		m := MustCompile(`credited`)
		caps, ok := m.TryMatch("debited")
		assert.False(t, ok)
		assert.Equal(t, 0, caps.Len())
	})
}

func TestMatcher_ConcurrentUse(t *testing.T) {
	m := MustCompile(`(?i)inr\s?([\d,]+)`)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			caps, ok := m.TryMatch("INR 1,250 spent")
			assert.True(t, ok)
			got, _ := caps.Group(1)
			assert.Equal(t, "1,250", got)
		}()
	}
	wg.Wait()
}
