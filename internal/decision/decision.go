package decision

// Decision is the engine output: either NoChange or Hide(paymentMethodID).
// The zero value is NoChange.
type Decision struct {
	hide            bool
	paymentMethodID string
}

// NoChange leaves checkout untouched.
func NoChange() Decision {
	return Decision{}
}

// Hide removes the payment method with the given id from checkout.
func Hide(paymentMethodID string) Decision {
	return Decision{hide: true, paymentMethodID: paymentMethodID}
}

// IsNoChange reports whether the decision leaves checkout untouched.
func (d Decision) IsNoChange() bool {
	return !d.hide
}

// HiddenPaymentMethod returns the payment method to hide, if any.
func (d Decision) HiddenPaymentMethod() (string, bool) {
	return d.paymentMethodID, d.hide
}

func (d Decision) String() string {
	if d.hide {
		return "hide:" + d.paymentMethodID
	}
	return "no_change"
}

// Outcome is the metrics/audit label for the decision.
func (d Decision) Outcome() string {
	if d.hide {
		return "hide"
	}
	return "no_change"
}

// RunInput is the payload the host platform supplies per evaluation.
type RunInput struct {
	PaymentCustomization *PaymentCustomizationInput `json:"paymentCustomization"`
	Cart                 *Cart                      `json:"cart"`
	PaymentMethods       []PaymentMethod            `json:"paymentMethods"`
}

// PaymentCustomizationInput carries the metafield holding the configuration.
type PaymentCustomizationInput struct {
	Metafield *MetafieldInput `json:"metafield"`
}

// MetafieldInput is the stored configuration blob; Value may be null.
type MetafieldInput struct {
	Value *string `json:"value"`
}

// ConfigValue digs the raw configuration blob out of the input, tolerating
// every missing level.
func (in RunInput) ConfigValue() *string {
	if in.PaymentCustomization == nil || in.PaymentCustomization.Metafield == nil {
		return nil
	}
	return in.PaymentCustomization.Metafield.Value
}

// RunResult is returned to the host. Empty Operations means leave checkout as is.
type RunResult struct {
	Operations []Operation `json:"operations"`
}

// Operation is a single checkout change.
type Operation struct {
	Hide *HideOperation `json:"hide,omitempty"`
}

// HideOperation hides one payment method.
type HideOperation struct {
	PaymentMethodID string `json:"paymentMethodId"`
}

// Result renders the decision in the host output contract.
func (d Decision) Result() RunResult {
	if !d.hide {
		return RunResult{Operations: []Operation{}}
	}
	return RunResult{Operations: []Operation{{Hide: &HideOperation{PaymentMethodID: d.paymentMethodID}}}}
}
