package decision

// Configuration is the merchant rule: hide the payment method named
// PaymentMethodName when any variant listed under Products is in the cart.
type Configuration struct {
	PaymentMethodName string
	Products          []ProductRef
}

// ProductRef identifies a product the merchant selected. Only the variant ids
// take part in the decision.
type ProductRef struct {
	ID       string        `json:"id"`
	Variants []*VariantRef `json:"variants"`
}

// VariantRef is a purchasable variant. Entries may be null or carry no id when
// the picker had not loaded the product's variants.
type VariantRef struct {
	ID string `json:"id"`
}

// PaymentMethod is a checkout payment method eligible to be hidden.
type PaymentMethod struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Merchandise is the variant a cart line purchases.
type Merchandise struct {
	ID string `json:"id"`
}

// CartLine is a single line of the cart.
type CartLine struct {
	Merchandise *Merchandise `json:"merchandise"`
}

// Cart is the checkout cart. A nil *Cart is treated as empty.
type Cart struct {
	Lines []*CartLine `json:"lines"`
}

// Reason explains why the engine reached its decision.
type Reason string

const (
	ReasonConfigAbsent           Reason = "config_absent"
	ReasonConfigMalformed        Reason = "config_malformed"
	ReasonConfigIncomplete       Reason = "config_incomplete"
	ReasonNoPaymentMethodMatch   Reason = "no_payment_method_match"
	ReasonProductsMalformed      Reason = "products_malformed"
	ReasonNoRestrictedItems      Reason = "no_restricted_items"
	ReasonRestrictedItemsPresent Reason = "restricted_items_present"
)

// Evaluation pairs a decision with the reason behind it.
type Evaluation struct {
	Decision Decision
	Reason   Reason
	// MatchedLines counts cart lines holding a restricted variant.
	MatchedLines int
}
