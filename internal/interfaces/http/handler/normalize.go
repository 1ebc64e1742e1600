package handler

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Text arriving over HTTP is put in NFC before it reaches the domain, so
// visually identical strings compare equal in the database. Logins fold
// case and codes upper-case, which makes both case-insensitive.

func normalizeText(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

func normalizeTextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	v := normalizeText(*s)
	return &v
}

// normalizeLogin case-folds a username. The caser is not safe for
// concurrent use, so one is built per call.
func normalizeLogin(s string) string {
	return cases.Fold().String(normalizeText(s))
}

// normalizeCode upper-cases product and warehouse codes
func normalizeCode(s string) string {
	return cases.Upper(language.Und).String(normalizeText(s))
}
