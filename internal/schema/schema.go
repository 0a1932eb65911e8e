// Package schema builds the JSON schemas sent to the completion API and
// rewrites them into the strict dialect structured-output endpoints accept.
package schema

// Listing returns the JSON schema for a converted listing, with the numeric
// and length constraints the validator also enforces. Optional fields are
// nullable unions so the model can state "unknown" explicitly.
func Listing() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"listing_id": map[string]any{
				"type":        "string",
				"description": "Stable listing identifier; echo the value given in the prompt.",
			},
			"listing_url": map[string]any{
				"type":   "string",
				"format": "uri",
			},
			"property_address": map[string]any{"type": "string"},
			"city":             map[string]any{"type": "string"},
			"state":            map[string]any{"type": "string"},
			"zip_code":         map[string]any{"type": "string"},
			"bedrooms": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			"bathrooms": map[string]any{
				"type":    "number",
				"minimum": 0,
			},
			"square_meters": nullable(map[string]any{
				"type":             "integer",
				"exclusiveMinimum": 0,
			}),
			"lot_size": nullable(map[string]any{
				"type":             "integer",
				"exclusiveMinimum": 0,
			}),
			"year_built": nullable(map[string]any{
				"type":    "integer",
				"minimum": 1800,
				"maximum": 2030,
			}),
			"property_type": nullable(map[string]any{"type": "string"}),
			"stories": nullable(map[string]any{
				"type":    "integer",
				"minimum": 1,
			}),
			"garage_spaces": nullable(map[string]any{
				"type":    "integer",
				"minimum": 0,
			}),
			"list_price": map[string]any{
				"type":             "number",
				"exclusiveMinimum": 0,
			},
			"has_pool":      nullable(map[string]any{"type": "boolean"}),
			"has_garage":    nullable(map[string]any{"type": "boolean"}),
			"has_basement":  nullable(map[string]any{"type": "boolean"}),
			"has_fireplace": nullable(map[string]any{"type": "boolean"}),
			"description": map[string]any{
				"type":      "string",
				"minLength": 10,
			},
			"realtor_name":   nullable(map[string]any{"type": "string"}),
			"realtor_agency": nullable(map[string]any{"type": "string"}),
			"listing_date": nullable(map[string]any{
				"type":   "string",
				"format": "date",
			}),
		},
	}
}

// ConsistencyCheck returns the JSON schema for the consistency verdict. It
// deliberately omits checked_at and source: both are stamped locally.
func ConsistencyCheck() map[string]any {
	return map[string]any{
		"type": "object",
		"properties": map[string]any{
			"listing_id":       map[string]any{"type": "string"},
			"property_address": map[string]any{"type": "string"},
			"total_inconsistencies": map[string]any{
				"type":    "integer",
				"minimum": 0,
			},
			"is_consistent": map[string]any{"type": "boolean"},
			"findings": map[string]any{
				"type":     "array",
				"maxItems": 20,
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"field_name": map[string]any{"type": "string"},
						"description_says": map[string]any{
							"type":      "string",
							"maxLength": 200,
						},
						"listing_data_says": map[string]any{
							"type":      "string",
							"maxLength": 200,
						},
						"severity": map[string]any{
							"type": "string",
							"enum": []any{"critical", "medium", "low"},
						},
						"explanation": map[string]any{
							"type":      "string",
							"maxLength": 300,
						},
					},
				},
			},
			"summary": map[string]any{
				"type":      "string",
				"maxLength": 200,
			},
		},
	}
}

func nullable(s map[string]any) map[string]any {
	return map[string]any{
		"anyOf": []any{s, map[string]any{"type": "null"}},
	}
}
