package decision

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecisionVariants(t *testing.T) {
	var zero Decision
	assert.True(t, zero.IsNoChange())
	assert.Equal(t, NoChange(), zero)

	hide := Hide("PM1")
	id, ok := hide.HiddenPaymentMethod()
	assert.True(t, ok)
	assert.Equal(t, "PM1", id)
	assert.Equal(t, "hide", hide.Outcome())
	assert.Equal(t, "hide:PM1", hide.String())

	_, ok = NoChange().HiddenPaymentMethod()
	assert.False(t, ok)
	assert.Equal(t, "no_change", NoChange().Outcome())
}

func TestResultShapes(t *testing.T) {
	assert.NotNil(t, NoChange().Result().Operations)
	assert.Empty(t, NoChange().Result().Operations)

	ops := Hide("PM1").Result().Operations
	assert.Len(t, ops, 1)
	assert.Equal(t, "PM1", ops[0].Hide.PaymentMethodID)
}

func TestConfigValue(t *testing.T) {
	v := "x"
	assert.Nil(t, RunInput{}.ConfigValue())
	assert.Nil(t, RunInput{PaymentCustomization: &PaymentCustomizationInput{}}.ConfigValue())
	assert.Equal(t, &v, RunInput{PaymentCustomization: &PaymentCustomizationInput{Metafield: &MetafieldInput{Value: &v}}}.ConfigValue())
}
