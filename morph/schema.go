package morph

import (
	"strings"
	"unicode"

	"github.com/brunobiangulo/syrmorph/llm"
)

// ToolName is the function name the model must call for this shape, the
// snake_case form of the shape name ("complete_form_response").
func (k Kind) ToolName() string {
	return snakeCase(k.String())
}

func snakeCase(s string) string {
	var b strings.Builder
	for i, r := range s {
		if unicode.IsUpper(r) {
			if i > 0 {
				b.WriteByte('_')
			}
			r = unicode.ToLower(r)
		}
		b.WriteRune(r)
	}
	return b.String()
}

// Tool returns the strict function tool whose arguments carry this shape.
// Every property is required; optional affixes are nullable instead, which
// is what strict function calling expects.
func (k Kind) Tool() llm.ToolDefinition {
	return llm.ToolDefinition{
		Name:        k.ToolName(),
		Description: k.Description(),
		Parameters:  k.Schema(),
		Strict:      true,
	}
}

// Schema returns the JSON Schema of the tool arguments.
func (k Kind) Schema() map[string]any {
	props := map[string]any{}
	switch k {
	case KindListWords:
		props["words"] = map[string]any{
			"type":        "array",
			"description": "The list of Syriac words",
			"items":       map[string]any{"type": "string"},
		}
	case KindPrefixedAnalyticalWord:
		props["prefix"] = nullableString("The prefixed analytical word of the word")
	case KindSuffixedPronoun:
		props["suffix"] = nullableString("The suffixed pronoun of the word")
	case KindCompleteForm:
		props["complete"] = map[string]any{
			"type":        "string",
			"description": "The complete form of the word",
		}
	case KindPrefixedSuffixedMorpheme:
		props["prefix"] = nullableString("The prefixed morpheme of the word")
		props["suffix"] = nullableString("The suffixed morpheme of the word")
	case KindMorphemeType:
		props["morpheme_type"] = map[string]any{
			"type":        "string",
			"description": "The type of morpheme of the word",
			"enum":        Categories(),
		}
	}

	return map[string]any{
		"type":                 "object",
		"properties":           props,
		"required":             k.fields(),
		"additionalProperties": false,
	}
}

// fields lists the argument names in declaration order.
func (k Kind) fields() []string {
	switch k {
	case KindListWords:
		return []string{"words"}
	case KindPrefixedAnalyticalWord:
		return []string{"prefix"}
	case KindSuffixedPronoun:
		return []string{"suffix"}
	case KindCompleteForm:
		return []string{"complete"}
	case KindPrefixedSuffixedMorpheme:
		return []string{"prefix", "suffix"}
	case KindMorphemeType:
		return []string{"morpheme_type"}
	}
	return nil
}

func nullableString(desc string) map[string]any {
	return map[string]any{
		"type":        []string{"string", "null"},
		"description": desc,
	}
}
