// Package agent implements the LLM pipeline that turns raw Instagram posts
// into normalized multi-locale listing drafts.
//
// The flow per post is: build a strict response schema, ensure a remote
// assistant exists for the current (prompt, model, schema) definition
// (cached by fingerprint), send the post as one conversational turn, unwrap
// the enveloped response, and run semantic validation before the draft is
// trusted as domain data.
package agent

// buildKeyMetricSchema describes one key-metric object: three required
// string fields, no extras.
func buildKeyMetricSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"label":  map[string]any{"type": "string"},
			"value":  map[string]any{"type": "string"},
			"helper": map[string]any{"type": "string"},
		},
		"required":             []any{"label", "value", "helper"},
		"additionalProperties": false,
	}
}

// buildTranslationSchema describes the localizable bundle produced for one
// target locale.
func buildTranslationSchema() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"title":    map[string]any{"type": "string"},
			"subtitle": map[string]any{"type": "string"},
			"location": map[string]any{"type": "string"},
			"body":     map[string]any{"type": "string"},
			"tags": map[string]any{
				"type":  "array",
				"items": map[string]any{"type": "string"},
			},
			"key_metrics": map[string]any{
				"type":  "array",
				"items": buildKeyMetricSchema(),
			},
		},
		"required":             []any{"title", "subtitle", "location", "body", "tags", "key_metrics"},
		"additionalProperties": false,
	}
}

// BuildResponseSchema builds the strict JSON schema the remote model must
// conform to, for the given target locale set. The draft object is wrapped
// in a single required "value" property typed ["object","null"] because the
// structured-output transport does not accept a bare nullable root; a null
// value is the model's "not a listing" signal. The wrapper is peeled
// symmetrically by Unwrap.
//
// Pure and deterministic: the same locale set always yields the same
// structure, so the marshalled form is stable for fingerprinting.
func BuildResponseSchema(locales []string) map[string]any {
	translationProps := map[string]any{}
	required := make([]any, 0, len(locales))
	for _, locale := range locales {
		translationProps[locale] = buildTranslationSchema()
		required = append(required, locale)
	}

	draftProps := map[string]any{
		"deal_type": map[string]any{
			"type": "string",
			"enum": []any{"rent", "sale"},
		},
		"slug":     map[string]any{"type": "string"},
		"title":    map[string]any{"type": "string"},
		"subtitle": map[string]any{"type": "string"},
		"location": map[string]any{"type": "string"},
		"body":     map[string]any{"type": "string"},
		"price": map[string]any{
			"type": "string",
			"description": "Monetary amount with currency extracted from the caption, " +
				"e.g. '25 000 CZK/měsíc' or '150 000 €'. Empty string when the caption " +
				"names no price. Never a deal type or property type word.",
		},
		"price_on_request": map[string]any{
			"type":        "boolean",
			"description": "true only when price is the empty string.",
		},
		"tags": map[string]any{
			"type":  "array",
			"items": map[string]any{"type": "string"},
		},
		"key_metrics": map[string]any{
			"type":  "array",
			"items": buildKeyMetricSchema(),
		},
		"translations": map[string]any{
			"type":                 "object",
			"properties":           translationProps,
			"required":             required,
			"additionalProperties": false,
		},
	}
	draftRequired := []any{
		"deal_type", "slug", "title", "subtitle", "location",
		"body", "price", "price_on_request", "tags", "key_metrics",
		"translations",
	}

	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"value": map[string]any{
				"type":                 []any{"object", "null"},
				"properties":           draftProps,
				"required":             draftRequired,
				"additionalProperties": false,
			},
		},
		"required":             []any{"value"},
		"additionalProperties": false,
		"title":                "ListingDraftResponse",
	}
}
