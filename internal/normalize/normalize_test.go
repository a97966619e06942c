package normalize

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmehdipour/wablast/internal/model"
)

type captureAuditor struct {
	mu    sync.Mutex
	lines []string
}

func (a *captureAuditor) Append(_ context.Context, text string, _ string, _ model.DeliveryStatus, _ string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.lines = append(a.lines, text)
}

func TestNormalizeCanonicalForms(t *testing.T) {
	n := New(&captureAuditor{})
	ctx := context.Background()

	cases := []struct {
		raw  string
		want model.RecipientID
	}{
		{"628123456789", "628123456789"},
		{"+628123456789", "628123456789"},
		{"  62812 345 6789\n", "628123456789"},
		{"628123456789.0", "628123456789"}, // spreadsheet float artifact
	}
	for _, tc := range cases {
		got, err := n.Normalize(ctx, tc.raw)
		require.NoError(t, err, "input %q", tc.raw)
		assert.Equal(t, tc.want, got, "input %q", tc.raw)
		assert.True(t, got.Valid())
	}
}

func TestNormalizeRejectsMalformedInput(t *testing.T) {
	n := New(&captureAuditor{})
	ctx := context.Background()

	for _, raw := range []string{
		"",
		"   ",
		"123",
		"08123456789",         // local format, country code required
		"18123456789",         // wrong country code
		"62812345678901234",   // too long
		"whatsapp:628123456",  // junk prefix
		"628123456789extra",   // trailing junk
	} {
		_, err := n.Normalize(ctx, raw)
		assert.ErrorIs(t, err, ErrInvalidFormat, "input %q", raw)
	}
}

func TestNormalizeAuditsEveryAttempt(t *testing.T) {
	audit := &captureAuditor{}
	n := New(audit)
	ctx := context.Background()

	_, err := n.Normalize(ctx, "628123456789")
	require.NoError(t, err)
	_, err = n.Normalize(ctx, "123")
	require.Error(t, err)

	audit.mu.Lock()
	defer audit.mu.Unlock()
	require.Len(t, audit.lines, 2)
	assert.Contains(t, audit.lines[0], "validated as 628123456789")
	assert.Contains(t, audit.lines[1], "invalid number format")
}
