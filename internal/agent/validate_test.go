package agent

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/illumi1717/realdeko-site-backend/internal/model"
)

func validDraft() ListingDraft {
	bundle := model.Translation{
		Title: "t", Subtitle: "s", Location: "l", Body: "b",
		Tags: []string{}, KeyMetrics: []model.KeyMetric{},
	}
	return ListingDraft{
		DealType: model.DealRent,
		Slug:     "test",
		Title:    "Оренда квартири",
		Price:    "25 000 CZK/měsíc",
		Translations: map[string]model.Translation{
			"uk": bundle, "ru": bundle, "en": bundle, "cs": bundle,
		},
	}
}

func newTestValidator() *Validator {
	return NewValidator([]string{"uk", "ru", "en", "cs"})
}

func TestValidate_PlausiblePriceKept(t *testing.T) {
	draft, ok := newTestValidator().Validate(validDraft())
	require.True(t, ok)
	assert.Equal(t, "25 000 CZK/měsíc", draft.Price)
	assert.False(t, draft.PriceOnRequest)
}

func TestValidate_DenylistedPriceRepaired(t *testing.T) {
	for _, bad := range []string{"оренда", "rent", "SALE", "Продаж", "квартира", "byt", " dům "} {
		in := validDraft()
		in.Price = bad
		in.PriceOnRequest = false

		draft, ok := newTestValidator().Validate(in)
		require.True(t, ok, "price %q", bad)
		assert.Empty(t, draft.Price, "price %q", bad)
		assert.True(t, draft.PriceOnRequest, "price %q", bad)
	}
}

func TestValidate_DigitlessPriceRepaired(t *testing.T) {
	in := validDraft()
	in.Price = "за домовленістю"

	draft, ok := newTestValidator().Validate(in)
	require.True(t, ok)
	assert.Empty(t, draft.Price)
	assert.True(t, draft.PriceOnRequest)
}

func TestValidate_FlagAlwaysDerived(t *testing.T) {
	// Empty price with the flag unset: the model forgot the flag.
	in := validDraft()
	in.Price = ""
	in.PriceOnRequest = false
	draft, ok := newTestValidator().Validate(in)
	require.True(t, ok)
	assert.True(t, draft.PriceOnRequest)

	// Valid price with the flag set: the flag lies, price wins.
	in = validDraft()
	in.PriceOnRequest = true
	draft, ok = newTestValidator().Validate(in)
	require.True(t, ok)
	assert.False(t, draft.PriceOnRequest)
}

func TestValidate_BadDealTypeRejects(t *testing.T) {
	in := validDraft()
	in.DealType = "lease"
	_, ok := newTestValidator().Validate(in)
	assert.False(t, ok)
}

func TestValidate_LocaleSetMustMatchExactly(t *testing.T) {
	missing := validDraft()
	delete(missing.Translations, "cs")
	_, ok := newTestValidator().Validate(missing)
	assert.False(t, ok)

	extra := validDraft()
	extra.Translations["de"] = model.Translation{}
	_, ok = newTestValidator().Validate(extra)
	assert.False(t, ok)

	renamed := validDraft()
	delete(renamed.Translations, "uk")
	renamed.Translations["ua"] = model.Translation{}
	_, ok = newTestValidator().Validate(renamed)
	assert.False(t, ok)
}

func TestValidate_NilSlicesNormalized(t *testing.T) {
	in := validDraft()
	in.Tags = nil
	in.KeyMetrics = nil

	draft, ok := newTestValidator().Validate(in)
	require.True(t, ok)
	assert.NotNil(t, draft.Tags)
	assert.NotNil(t, draft.KeyMetrics)
}
