package ruleset

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/Veraticus/the-sms-must-flow/internal/common"
)

// NormalizeSender reduces a raw sender address to its identifying code.
// Carrier prefixes such as "VM-" or "AD-" are dropped by taking the last
// non-empty '-' separated segment, which is then trimmed and upper-cased. It
// reports false when no segment contains a letter or digit.
//
// Message senders and configured rule senders both go through this function,
// so membership is an exact comparison of the results.
func NormalizeSender(raw string) (string, bool) {
	segments := strings.Split(raw, "-")
	for i := len(segments) - 1; i >= 0; i-- {
		seg := strings.TrimSpace(segments[i])
		if seg == "" {
			continue
		}
		if !strings.ContainsFunc(seg, isIdentifying) {
			return "", false
		}
		return strings.ToUpper(seg), true
	}
	return "", false
}

// ParseSender is NormalizeSender for callers that want an error. The error
// wraps common.ErrNoUsableSender.
func ParseSender(raw string) (string, error) {
	code, ok := NormalizeSender(raw)
	if !ok {
		return "", fmt.Errorf("%w: %q", common.ErrNoUsableSender, raw)
	}
	return code, nil
}

func isIdentifying(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r)
}
