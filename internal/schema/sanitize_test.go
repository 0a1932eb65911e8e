package schema

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSanitize_StripsURIFormat(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"listing_url": map[string]any{"type": "string", "format": "uri"},
			"listing_date": map[string]any{"type": "string", "format": "date"},
		},
	}
	out := Sanitize(in)

	props := out["properties"].(map[string]any)
	assert.NotContains(t, props["listing_url"].(map[string]any), "format")
	// Other formats survive.
	assert.Equal(t, "date", props["listing_date"].(map[string]any)["format"])
}

func TestSanitize_RequiresAllPropertiesAndClosesObjects(t *testing.T) {
	out := Sanitize(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"b": map[string]any{"type": "string"},
			"a": map[string]any{"type": "integer"},
		},
	})

	assert.Equal(t, false, out["additionalProperties"])
	assert.Equal(t, []any{"a", "b"}, out["required"])
}

func TestSanitize_RecursesNestedObjectsAndArrays(t *testing.T) {
	out := Sanitize(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"findings": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field_name": map[string]any{"type": "string"},
					},
				},
			},
		},
	})

	findings := out["properties"].(map[string]any)["findings"].(map[string]any)
	items := findings["items"].(map[string]any)
	assert.Equal(t, false, items["additionalProperties"])
	assert.Equal(t, []any{"field_name"}, items["required"])
}

func TestSanitize_PreservesNullableUnions(t *testing.T) {
	out := Sanitize(map[string]any{
		"type": "object",
		"properties": map[string]any{
			"year_built": map[string]any{
				"anyOf": []any{
					map[string]any{"type": "integer", "minimum": 1800},
					map[string]any{"type": "null"},
				},
			},
		},
	})

	union := out["properties"].(map[string]any)["year_built"].(map[string]any)["anyOf"].([]any)
	require.Len(t, union, 2)
	assert.Equal(t, "null", union[1].(map[string]any)["type"])
	assert.Equal(t, 1800, union[0].(map[string]any)["minimum"])
}

func TestSanitize_DoesNotMutateInput(t *testing.T) {
	in := map[string]any{
		"type": "object",
		"properties": map[string]any{
			"url": map[string]any{"type": "string", "format": "uri"},
		},
	}
	_ = Sanitize(in)

	assert.NotContains(t, in, "required")
	assert.Equal(t, "uri", in["properties"].(map[string]any)["url"].(map[string]any)["format"])
}

func TestSanitize_Idempotent(t *testing.T) {
	once := Sanitize(Listing())
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitize_IdempotentOnConsistencySchema(t *testing.T) {
	once := Sanitize(ConsistencyCheck())
	twice := Sanitize(once)
	assert.Equal(t, once, twice)
}

func TestSanitize_TotalOnOddShapes(t *testing.T) {
	// Non-object nodes pass through untouched.
	out := Sanitize(map[string]any{
		"type":       "object",
		"properties": map[string]any{"x": map[string]any{"enum": []any{"a", "b"}}},
		"title":      42,
	})
	assert.Equal(t, 42, out["title"])
	assert.Equal(t, []any{"a", "b"}, out["properties"].(map[string]any)["x"].(map[string]any)["enum"])
}

func TestListingSchema_Constraints(t *testing.T) {
	s := Listing()
	props := s["properties"].(map[string]any)

	assert.Equal(t, 0, props["list_price"].(map[string]any)["exclusiveMinimum"])
	assert.Equal(t, 10, props["description"].(map[string]any)["minLength"])
	yearUnion := props["year_built"].(map[string]any)["anyOf"].([]any)
	assert.Equal(t, 1800, yearUnion[0].(map[string]any)["minimum"])
	assert.Equal(t, 2030, yearUnion[0].(map[string]any)["maximum"])
}

func TestConsistencySchema_OmitsLocallyStampedFields(t *testing.T) {
	props := ConsistencyCheck()["properties"].(map[string]any)
	assert.NotContains(t, props, "checked_at")
	assert.NotContains(t, props, "source")
	assert.Contains(t, props, "findings")
}
