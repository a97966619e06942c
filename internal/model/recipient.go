package model

import "regexp"

// RecipientID is a canonical phone number in international format without
// the leading "+": digits only, country code first (e.g. "628123456789").
// Values are only produced by the normalizer; raw input never becomes a
// RecipientID without passing validation.
type RecipientID string

func (r RecipientID) String() string { return string(r) }

// canonicalPattern matches an Indonesian number in canonical form:
// country code 62 followed by 8-12 digits.
var canonicalPattern = regexp.MustCompile(`^62[0-9]{8,12}$`)

func (r RecipientID) Valid() bool {
	return canonicalPattern.MatchString(string(r))
}

// RawPattern is the pre-validation shape accepted by the normalizer:
// optional "+", country code 62, then 8-12 digits.
var RawPattern = regexp.MustCompile(`^\+?62[0-9]{8,12}$`)
