package decision

import (
	"fmt"
	"strings"
)

// Matcher decides whether a checkout payment method's display name refers to
// the name the merchant configured.
type Matcher interface {
	Matches(candidateName, configuredName string) bool
}

// MatcherFunc adapts a function to Matcher.
type MatcherFunc func(candidateName, configuredName string) bool

func (f MatcherFunc) Matches(candidateName, configuredName string) bool {
	return f(candidateName, configuredName)
}

// Named matching strategies.
const (
	StrategySubstring       = "substring"
	StrategyExact           = "exact"
	StrategyCaseInsensitive = "case_insensitive"
)

var (
	// SubstringMatcher is the default: a case-sensitive substring test, so
	// "Cash on Delivery" matches "Cash on Delivery (COD)".
	SubstringMatcher Matcher = MatcherFunc(strings.Contains)

	// ExactMatcher requires the names to be identical.
	ExactMatcher Matcher = MatcherFunc(func(candidate, configured string) bool {
		return candidate == configured
	})

	// CaseInsensitiveMatcher is a substring test that ignores case.
	CaseInsensitiveMatcher Matcher = MatcherFunc(func(candidate, configured string) bool {
		return strings.Contains(strings.ToLower(candidate), strings.ToLower(configured))
	})
)

// ParseMatchStrategy resolves a strategy name. An empty name selects substring.
func ParseMatchStrategy(name string) (Matcher, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", StrategySubstring:
		return SubstringMatcher, nil
	case StrategyExact:
		return ExactMatcher, nil
	case StrategyCaseInsensitive:
		return CaseInsensitiveMatcher, nil
	default:
		return nil, fmt.Errorf("unknown payment method match strategy %q", name)
	}
}

// SelectPaymentMethod returns the first candidate the matcher accepts.
func SelectPaymentMethod(methods []PaymentMethod, configuredName string, m Matcher) (PaymentMethod, bool) {
	for _, method := range methods {
		if m.Matches(method.Name, configuredName) {
			return method, true
		}
	}
	return PaymentMethod{}, false
}
