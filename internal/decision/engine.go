package decision

import (
	"errors"
	"log/slog"
)

// Engine decides whether a payment method must be hidden for a cart. It holds
// no per-call state and performs no I/O, so one Engine serves all requests.
//
// The engine is total: incomplete or malformed merchant data always resolves
// to NoChange, leaving the payment method visible.
type Engine struct {
	matcher Matcher
	logger  *slog.Logger
}

// Option configures an Engine.
type Option func(*Engine)

// WithMatcher swaps the payment method name matching strategy.
func WithMatcher(m Matcher) Option {
	return func(e *Engine) {
		if m != nil {
			e.matcher = m
		}
	}
}

// WithLogger sets the diagnostic logger. Diagnostics are informational only.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		matcher: SubstringMatcher,
		logger:  slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Evaluate returns the decision for the given configuration blob, cart and
// candidate payment methods.
func (e *Engine) Evaluate(configRaw *string, cart *Cart, paymentMethods []PaymentMethod) Decision {
	return e.Explain(configRaw, cart, paymentMethods).Decision
}

// Explain runs the same evaluation as Evaluate and reports the reason.
// Rule order (first failing rule wins):
//  1. configuration present and complete
//  2. a candidate payment method matches the configured name
//  3. nested products payload decodes
//  4. at least one cart line holds a restricted variant
func (e *Engine) Explain(configRaw *string, cart *Cart, paymentMethods []PaymentMethod) Evaluation {
	env, err := DecodeEnvelope(configRaw)
	if err != nil {
		return Evaluation{Decision: NoChange(), Reason: envelopeReason(err)}
	}

	target, ok := SelectPaymentMethod(paymentMethods, env.PaymentMethodName, e.matcher)
	if !ok {
		return Evaluation{Decision: NoChange(), Reason: ReasonNoPaymentMethodMatch}
	}

	products, err := env.DecodeProducts()
	if err != nil {
		e.logger.Warn("payment customization products could not be decoded",
			"payment_method_id", target.ID,
			"error", err,
		)
		return Evaluation{Decision: NoChange(), Reason: ReasonProductsMalformed}
	}

	matched := countRestrictedLines(cart, RestrictedVariants(products))
	if matched == 0 {
		e.logger.Info("no restricted items present in cart, no need to hide the payment method",
			"payment_method_id", target.ID,
		)
		return Evaluation{Decision: NoChange(), Reason: ReasonNoRestrictedItems}
	}

	return Evaluation{
		Decision:     Hide(target.ID),
		Reason:       ReasonRestrictedItemsPresent,
		MatchedLines: matched,
	}
}

// Run evaluates a host payload and renders the host result.
func (e *Engine) Run(input RunInput) RunResult {
	return e.Evaluate(input.ConfigValue(), input.Cart, input.PaymentMethods).Result()
}

func countRestrictedLines(cart *Cart, restricted map[string]struct{}) int {
	if cart == nil || len(restricted) == 0 {
		return 0
	}
	matched := 0
	for _, line := range cart.Lines {
		if line == nil || line.Merchandise == nil {
			continue
		}
		if _, ok := restricted[line.Merchandise.ID]; ok {
			matched++
		}
	}
	return matched
}

func envelopeReason(err error) Reason {
	switch {
	case errors.Is(err, ErrConfigAbsent):
		return ReasonConfigAbsent
	case errors.Is(err, ErrConfigIncomplete):
		return ReasonConfigIncomplete
	default:
		return ReasonConfigMalformed
	}
}
