package classification

import (
	"testing"

	"github.com/Veraticus/the-sms-must-flow/internal/ruleset"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSelectCandidates(t *testing.T) {
	rs, err := ruleset.New([]ruleset.RuleSpec{
		{Senders: []string{"HDFCBK"}, Patterns: []ruleset.PatternSpec{{Regex: "a", SMSType: "debit"}}},
		{Senders: []string{"ICICIB"}, Patterns: []ruleset.PatternSpec{{Regex: "b", SMSType: "debit"}}},
		{Senders: []string{"hdfcbk", "AXISBK"}, Patterns: []ruleset.PatternSpec{{Regex: "c", SMSType: "credit"}}},
	})
	require.NoError(t, err)

	t.Run("declaration order", func(t *testing.T) {
		got := SelectCandidates("VM-HDFCBK", rs)
		require.Len(t, got, 2)
		assert.Equal(t, 0, got[0].Index)
		assert.Equal(t, 2, got[1].Index)
	})

	t.Run("exact membership only", func(t *testing.T) {
		assert.Empty(t, SelectCandidates("VM-HDFC", rs))
		assert.Empty(t, SelectCandidates("VM-HDFCBKX", rs))
	})

	t.Run("unusable sender selects nothing", func(t *testing.T) {
		assert.Empty(t, SelectCandidates("--", rs))
	})

	t.Run("prefixed rule sender", func(t *testing.T) {
		prefixed, err := ruleset.New([]ruleset.RuleSpec{
			{Senders: []string{"VM-HDFCBK"}, Patterns: []ruleset.PatternSpec{{Regex: "debited", SMSType: "debit"}}},
		})
		require.NoError(t, err)

		for _, sender := range []string{"VM-HDFCBK", "AD-HDFCBK", "hdfcbk"} {
			got := SelectCandidates(sender, prefixed)
			require.Len(t, got, 1, sender)
			assert.Equal(t, 0, got[0].Index)
		}
	})

	t.Run("nil ruleset", func(t *testing.T) {
		assert.Empty(t, SelectCandidates("HDFCBK", nil))
	})
}
