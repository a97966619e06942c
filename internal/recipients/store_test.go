package recipients_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jmehdipour/wablast/internal/model"
	"github.com/jmehdipour/wablast/internal/recipients"
)

func TestReplaceAndCurrent(t *testing.T) {
	s := recipients.NewStore()
	assert.Equal(t, 0, s.Count())
	assert.Empty(t, s.Current())

	n := s.Replace([]model.RecipientID{"628123456789", "628123456780"})
	assert.Equal(t, 2, n)
	assert.Equal(t, 2, s.Count())

	n = s.Replace([]model.RecipientID{"628123456781"})
	assert.Equal(t, 1, n)
	assert.Equal(t, []model.RecipientID{"628123456781"}, s.Current())
}

func TestCurrentReturnsCopy(t *testing.T) {
	s := recipients.NewStore()
	s.Replace([]model.RecipientID{"628123456789", "628123456780"})

	snap := s.Current()
	snap[0] = "mutated"

	assert.Equal(t, model.RecipientID("628123456789"), s.Current()[0])
}
