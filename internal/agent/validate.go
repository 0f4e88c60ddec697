package agent

import (
	"strings"
	"unicode"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

// priceDenylist holds strings the model is known to misplace into the
// price field: deal-type and property-type words across the supported
// locales. Matched against the trimmed, lowercased price.
var priceDenylist = map[string]struct{}{
	// Deal types.
	"rent": {}, "sale": {},
	"оренда": {}, "аренда": {},
	"продаж": {}, "продажа": {},
	"pronájem": {}, "prodej": {},
	// Property types.
	"квартира": {}, "будинок": {}, "дім": {}, "дом": {},
	"byt": {}, "dům": {},
	"apartment": {}, "house": {}, "flat": {},
}

// Validator applies the semantic checks the JSON schema cannot express.
//
// Price policy is repair-in-place: an implausible price is reset to empty
// and flagged price-on-request instead of dropping the whole record. Only
// structural defects (bad deal type, wrong locale set) reject the draft.
type Validator struct {
	locales []string
}

// NewValidator creates a Validator for the configured target locale set.
func NewValidator(locales []string) *Validator {
	return &Validator{locales: locales}
}

// Validate repairs and checks a draft. It returns ok=false when the draft
// must be rejected outright — the caller treats that exactly like a
// "not a listing" response.
func (v *Validator) Validate(draft ListingDraft) (ListingDraft, bool) {
	if model.ValidateDealType(draft.DealType) != nil {
		return ListingDraft{}, false
	}
	if !v.localesMatch(draft.Translations) {
		return ListingDraft{}, false
	}

	draft.Price = repairPrice(draft.Price)
	// The flag is always derived from the final price, never trusted
	// verbatim from the model.
	draft.PriceOnRequest = draft.Price == ""

	if draft.Tags == nil {
		draft.Tags = []string{}
	}
	if draft.KeyMetrics == nil {
		draft.KeyMetrics = []model.KeyMetric{}
	}

	return draft, true
}

// localesMatch checks that the translations map carries exactly the
// configured locale set: no missing, no extra.
func (v *Validator) localesMatch(translations map[string]model.Translation) bool {
	if len(translations) != len(v.locales) {
		return false
	}
	for _, locale := range v.locales {
		if _, ok := translations[locale]; !ok {
			return false
		}
	}
	return true
}

// repairPrice normalizes an implausible price to the empty string.
// A plausible price is non-empty, contains at least one digit, and is not
// a denylisted deal-type/property-type word.
func repairPrice(price string) string {
	trimmed := strings.TrimSpace(price)
	if trimmed == "" {
		return ""
	}

	lowered := strings.ToLower(trimmed)
	if _, denied := priceDenylist[lowered]; denied {
		return ""
	}
	if !containsDigit(lowered) {
		return ""
	}
	return trimmed
}

func containsDigit(s string) bool {
	for _, r := range s {
		if unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
