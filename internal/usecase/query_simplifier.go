package usecase

import (
	"log"
	"strings"
	"unicode"
)

// QuerySimplifier reduces a product name to its strongest search tokens
type QuerySimplifier struct {
	enabled            bool
	enableDebugLogging bool
}

// NewQuerySimplifier creates a new query simplifier
func NewQuerySimplifier(enabled, enableDebugLogging bool) *QuerySimplifier {
	return &QuerySimplifier{
		enabled:            enabled,
		enableDebugLogging: enableDebugLogging,
	}
}

// SimplifyQuery keeps the leading token (usually the brand) plus any token
// carrying a digit, e.g. "350ml" or "95pk", and drops the descriptors in
// between. The rule is a heuristic, so it only applies when the simplifier
// is enabled; otherwise the name passes through unchanged.
func (s *QuerySimplifier) SimplifyQuery(productName string) string {
	if !s.enabled || productName == "" {
		return productName
	}

	tokens := strings.Fields(productName)
	if len(tokens) == 0 {
		return productName
	}

	// First token is the brand guess
	kept := []string{tokens[0]}
	for _, token := range tokens[1:] {
		if containsDigit(token) {
			kept = append(kept, token)
		}
	}

	simplified := strings.Join(kept, " ")

	if s.enableDebugLogging {
		log.Printf("[SIMPLIFY] Input: %q | Output: %q", productName, simplified)
	}

	return simplified
}

// containsDigit reports whether any rune in s is a decimal digit
func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
