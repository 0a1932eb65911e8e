package schema

import "sort"

// Sanitize rewrites a JSON schema into the strict dialect the structured
// completion endpoint accepts: "uri" formats are dropped (the validator
// checks URLs itself), every object forbids additional properties, and every
// declared property becomes required. Nullable anyOf unions are preserved so
// optionality survives the all-required rewrite.
//
// The input is never mutated and the function is idempotent and total: any
// node it does not recognize is returned unchanged.
func Sanitize(node map[string]any) map[string]any {
	out, _ := sanitizeValue(node).(map[string]any)
	return out
}

func sanitizeValue(v any) any {
	switch n := v.(type) {
	case map[string]any:
		return sanitizeMap(n)
	case []any:
		out := make([]any, len(n))
		for i, item := range n {
			out[i] = sanitizeValue(item)
		}
		return out
	default:
		return v
	}
}

func sanitizeMap(n map[string]any) map[string]any {
	out := make(map[string]any, len(n))
	for k, v := range n {
		out[k] = v
	}

	if out["type"] == "string" && out["format"] == "uri" {
		delete(out, "format")
	}

	for _, key := range []string{"items", "$defs", "definitions"} {
		if sub, ok := out[key]; ok {
			out[key] = sanitizeValue(sub)
		}
	}
	for _, key := range []string{"anyOf", "oneOf", "allOf"} {
		if sub, ok := out[key].([]any); ok {
			out[key] = sanitizeValue(sub)
		}
	}

	if props, ok := out["properties"].(map[string]any); ok {
		cleaned := make(map[string]any, len(props))
		names := make([]string, 0, len(props))
		for name, sub := range props {
			cleaned[name] = sanitizeValue(sub)
			names = append(names, name)
		}
		sort.Strings(names)

		out["properties"] = cleaned
		out["additionalProperties"] = false
		required := make([]any, len(names))
		for i, name := range names {
			required[i] = name
		}
		out["required"] = required
	}

	return out
}
