package agent

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const draftJSON = `{
	"deal_type": "sale",
	"slug": "prodazh-kvartyry",
	"title": "Продаж 2-кімнатної квартири",
	"subtitle": "55 м² у центрі",
	"location": "Прага 2",
	"body": "Простора квартира.",
	"price": "89000€",
	"price_on_request": false,
	"tags": ["квартира"],
	"key_metrics": [{"label": "Площа", "value": "55 м²", "helper": ""}],
	"translations": {
		"uk": {"title": "t", "subtitle": "s", "location": "l", "body": "b", "tags": [], "key_metrics": []}
	}
}`

func TestUnwrap_VariableNesting(t *testing.T) {
	payloads := []string{
		draftJSON,
		fmt.Sprintf(`{"value": %s}`, draftJSON),
		fmt.Sprintf(`{"value": {"value": %s}}`, draftJSON),
		fmt.Sprintf(`{"value": %s, "annotations": []}`, draftJSON),
		fmt.Sprintf(`{"value": {"value": %s}, "annotations": []}`, draftJSON),
	}

	var want ListingDraft
	require.NoError(t, json.Unmarshal([]byte(draftJSON), &want))

	for i, payload := range payloads {
		draft, ok := Unwrap([]byte(payload))
		require.True(t, ok, "payload %d", i)
		assert.Equal(t, want, draft, "payload %d", i)
	}
}

func TestUnwrap_NullAtAnyDepth(t *testing.T) {
	for _, payload := range []string{
		`null`,
		`{"value": null}`,
		`{"value": {"value": null}}`,
		`{"value": null, "annotations": []}`,
	} {
		_, ok := Unwrap([]byte(payload))
		assert.False(t, ok, "payload %s", payload)
	}
}

func TestUnwrap_MalformedIsNotAListing(t *testing.T) {
	for _, payload := range []string{
		``,
		`not json at all`,
		`42`,
		`"just a string"`,
		`[1, 2, 3]`,
		`{"value": "scalar payload"}`,
		`{"value": [1, 2]}`,
	} {
		_, ok := Unwrap([]byte(payload))
		assert.False(t, ok, "payload %q", payload)
	}
}

func TestUnwrap_ObjectWithOtherKeysIsPayload(t *testing.T) {
	// A draft-like object that happens to be malformed for the draft type
	// still decodes leniently; only the envelope detection must not
	// swallow real payload keys.
	draft, ok := Unwrap([]byte(`{"deal_type": "rent", "title": "x", "translations": {}}`))
	require.True(t, ok)
	assert.Equal(t, "x", draft.Title)
}
