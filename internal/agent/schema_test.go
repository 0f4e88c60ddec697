package agent

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildResponseSchema_NullableEnvelope(t *testing.T) {
	schema := BuildResponseSchema([]string{"uk", "en"})

	assert.Equal(t, []any{"value"}, schema["required"])
	assert.Equal(t, false, schema["additionalProperties"])

	props := schema["properties"].(map[string]any)
	value := props["value"].(map[string]any)
	assert.Equal(t, []any{"object", "null"}, value["type"])
	assert.Equal(t, false, value["additionalProperties"])
}

func TestBuildResponseSchema_LocaleClosure(t *testing.T) {
	locales := []string{"uk", "ru", "en", "cs"}
	schema := BuildResponseSchema(locales)

	value := schema["properties"].(map[string]any)["value"].(map[string]any)
	translations := value["properties"].(map[string]any)["translations"].(map[string]any)

	props := translations["properties"].(map[string]any)
	require.Len(t, props, 4)
	for _, locale := range locales {
		assert.Contains(t, props, locale)
	}

	required := translations["required"].([]any)
	assert.ElementsMatch(t, []any{"uk", "ru", "en", "cs"}, required)
	assert.Equal(t, false, translations["additionalProperties"])
}

func TestBuildResponseSchema_DraftFieldsRequiredAndClosed(t *testing.T) {
	schema := BuildResponseSchema([]string{"uk"})

	value := schema["properties"].(map[string]any)["value"].(map[string]any)
	required := value["required"].([]any)
	assert.ElementsMatch(t, []any{
		"deal_type", "slug", "title", "subtitle", "location",
		"body", "price", "price_on_request", "tags", "key_metrics",
		"translations",
	}, required)

	dealType := value["properties"].(map[string]any)["deal_type"].(map[string]any)
	assert.Equal(t, []any{"rent", "sale"}, dealType["enum"])
}

func TestBuildResponseSchema_StableMarshal(t *testing.T) {
	locales := []string{"uk", "ru", "en", "cs"}

	first, err := json.Marshal(BuildResponseSchema(locales))
	require.NoError(t, err)
	second, err := json.Marshal(BuildResponseSchema(locales))
	require.NoError(t, err)

	assert.Equal(t, first, second)
}
