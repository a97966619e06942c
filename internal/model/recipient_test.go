package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmehdipour/wablast/internal/model"
)

func TestRecipientIDValid(t *testing.T) {
	valid := []string{"628123456789", "6281234567890", "62812345678"}
	for _, v := range valid {
		assert.True(t, model.RecipientID(v).Valid(), "id %q", v)
	}

	invalid := []string{"", "+628123456789", "08123456789", "18123456789", "62", "62abc123"}
	for _, v := range invalid {
		assert.False(t, model.RecipientID(v).Valid(), "id %q", v)
	}
}

func TestRawPattern(t *testing.T) {
	assert.True(t, model.RawPattern.MatchString("628123456789"))
	assert.True(t, model.RawPattern.MatchString("+628123456789"))
	assert.False(t, model.RawPattern.MatchString("08123456789"))
	assert.False(t, model.RawPattern.MatchString("628123456789.0"))
}

func TestParseDeliveryStatus(t *testing.T) {
	st, ok := model.ParseDeliveryStatus(" Success ")
	assert.True(t, ok)
	assert.Equal(t, model.StatusSuccess, st)

	_, ok = model.ParseDeliveryStatus("delivered")
	assert.False(t, ok)
}
