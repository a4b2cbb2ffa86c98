// Package morph holds the closed set of structured answers the decomposition
// asks for, and the fixed tree that orders those questions for one word.
package morph

import "fmt"

// Kind tags one answer shape. The set is closed: every Kind has a question
// template, a tool schema and a decoder, and the decomposition tree is built
// from Kinds only.
type Kind int

const (
	KindListWords Kind = iota
	KindPrefixedAnalyticalWord
	KindSuffixedPronoun
	KindCompleteForm
	KindPrefixedSuffixedMorpheme
	KindMorphemeType
)

// Kinds lists every answer shape in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindListWords,
		KindPrefixedAnalyticalWord,
		KindSuffixedPronoun,
		KindCompleteForm,
		KindPrefixedSuffixedMorpheme,
		KindMorphemeType,
	}
}

type kindInfo struct {
	name        string
	description string
	// parts is the number of positional parts Answer.Part accepts. -1 means
	// any index returns the same terminal value; 0 means none.
	parts int
}

var kindTable = map[Kind]kindInfo{
	KindListWords: {
		name:        "ListWordsResponse",
		description: "List the words in the sentence",
		parts:       0,
	},
	KindPrefixedAnalyticalWord: {
		name:        "PrefixedAnalyticalWordResponse",
		description: "Any prefixed analytical word of the word",
		parts:       2,
	},
	KindSuffixedPronoun: {
		name:        "SuffixedPronounResponse",
		description: "Any suffixed pronoun of the word",
		parts:       2,
	},
	KindCompleteForm: {
		name:        "CompleteFormResponse",
		description: "Provide the complete form of the word",
		parts:       -1,
	},
	KindPrefixedSuffixedMorpheme: {
		name:        "PrefixedSuffixedMorphemeResponse",
		description: "Any prefixed or suffixed morpheme of the word",
		parts:       3,
	},
	KindMorphemeType: {
		name:        "MorphemeTypeResponse",
		description: "Provide the type of morpheme of the word",
		parts:       -1,
	},
}

func (k Kind) info() kindInfo {
	info, ok := kindTable[k]
	if !ok {
		panic(fmt.Sprintf("morph: unknown answer kind %d", int(k)))
	}
	return info
}

// String returns the shape name, e.g. "SuffixedPronounResponse".
func (k Kind) String() string {
	if info, ok := kindTable[k]; ok {
		return info.name
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

// Description is the one-line tool description sent to the model.
func (k Kind) Description() string { return k.info().description }

// Terminal reports whether every part index yields the same value.
func (k Kind) Terminal() bool { return k.info().parts < 0 }

// AcceptsPart reports whether Part(word, i) is defined for this shape.
func (k Kind) AcceptsPart(i int) bool {
	if i < 0 {
		return false
	}
	parts := k.info().parts
	return parts < 0 || i < parts
}

// ParseKind resolves a shape name as printed by String or a tool name as
// returned by ToolName.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds() {
		if s == k.String() || s == k.ToolName() {
			return k, nil
		}
	}
	return 0, fmt.Errorf("morph: unknown answer kind %q", s)
}
