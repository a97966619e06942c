package normalize

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"

	"github.com/jmehdipour/wablast/internal/model"
)

// ErrInvalidFormat is returned for any recipient token that cannot be
// turned into a canonical id. Callers exclude the recipient and move on;
// a bad token never aborts a batch.
var ErrInvalidFormat = errors.New("invalid recipient format")

// Auditor is the slice of the audit log the normalizer needs.
type Auditor interface {
	Append(ctx context.Context, text string, recipient string, status model.DeliveryStatus, scheduleID string)
}

type Normalizer struct {
	audit Auditor
}

func New(audit Auditor) *Normalizer {
	return &Normalizer{audit: audit}
}

var (
	whitespace      = regexp.MustCompile(`[\s\r\n]+`)
	decimalArtifact = regexp.MustCompile(`\.\d+$`)
)

// Normalize validates and canonicalizes one raw recipient token into E.164
// form without the leading "+". Spreadsheet exports often coerce numbers
// into floats ("628123456789.0"), so a trailing decimal fraction is
// truncated before validation. Every attempt, pass or fail, leaves an
// audit line.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (model.RecipientID, error) {
	cleaned := whitespace.ReplaceAllString(strings.TrimSpace(raw), "")
	cleaned = decimalArtifact.ReplaceAllString(cleaned, "")

	if cleaned == "" || !model.RawPattern.MatchString(cleaned) {
		return "", n.fail(ctx, raw, fmt.Errorf("must start with 62 or +62 followed by 8-12 digits, got %d chars", len(cleaned)))
	}

	e164 := cleaned
	if !strings.HasPrefix(e164, "+") {
		e164 = "+" + e164
	}
	parsed, err := phonenumbers.Parse(e164, "ID")
	if err != nil {
		return "", n.fail(ctx, raw, err)
	}
	if !phonenumbers.IsValidNumber(parsed) {
		return "", n.fail(ctx, raw, errors.New("not a valid number by international standards"))
	}

	id := model.RecipientID(strings.TrimPrefix(phonenumbers.Format(parsed, phonenumbers.E164), "+"))
	n.audit.Append(ctx, fmt.Sprintf("[INFO] number %s validated as %s", raw, id), "", "", "")
	return id, nil
}

func (n *Normalizer) fail(ctx context.Context, raw string, cause error) error {
	n.audit.Append(ctx,
		fmt.Sprintf("[ERROR] invalid number format %s: %v", raw, cause),
		raw, model.StatusFailure, "")
	return fmt.Errorf("%w: %v", ErrInvalidFormat, cause)
}
