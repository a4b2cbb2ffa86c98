package morph

import (
	"fmt"
	"strings"
)

// Answer is one validated structured answer. Part slices the word the
// question was asked about into the pieces that label the outgoing tree
// edges; String renders the answer for the trace.
type Answer interface {
	Kind() Kind
	Part(word string, index int) string
	String() string
}

// Morpheme categories accepted in a MorphemeType answer.
const (
	CategoryPreformative  = "preformative"
	CategoryPassivePrefix = "passive prefix"
	CategoryVerbalStem    = "verbal stem morpheme"
	CategoryVerbalEnding  = "verbal ending"
	CategoryNominalEnding = "nominal ending"
	CategoryEmphatic      = "emphatic marker"
)

// Categories lists the morpheme categories in prompt order.
func Categories() []string {
	return []string{
		CategoryPreformative,
		CategoryPassivePrefix,
		CategoryVerbalStem,
		CategoryVerbalEnding,
		CategoryNominalEnding,
		CategoryEmphatic,
	}
}

// WordList answers KindListWords. It labels no tree edge.
type WordList struct {
	Words []string `json:"words" validate:"required"`
}

func (WordList) Kind() Kind { return KindListWords }

func (a WordList) Part(_ string, index int) string { panic(badIndex(KindListWords, index)) }

func (a WordList) String() string {
	if len(a.Words) == 0 {
		return "Words: " + Empty
	}
	return "Words: " + strings.Join(a.Words, ", ")
}

// PrefixedAnalyticalWord answers whether a preposition or ܘ is attached.
type PrefixedAnalyticalWord struct {
	Prefix *string `json:"prefix"`
}

func (PrefixedAnalyticalWord) Kind() Kind { return KindPrefixedAnalyticalWord }

func (a PrefixedAnalyticalWord) Part(word string, index int) string {
	prefix := deref(a.Prefix)
	switch index {
	case 0:
		return prefix
	case 1:
		return dropPrefix(word, prefix)
	}
	panic(badIndex(a.Kind(), index))
}

func (a PrefixedAnalyticalWord) String() string {
	return "Prefix: " + display(a.Prefix)
}

// SuffixedPronoun answers whether a pronoun is attached at the end.
type SuffixedPronoun struct {
	Suffix *string `json:"suffix"`
}

func (SuffixedPronoun) Kind() Kind { return KindSuffixedPronoun }

func (a SuffixedPronoun) Part(word string, index int) string {
	suffix := deref(a.Suffix)
	switch index {
	case 0:
		return dropSuffix(word, suffix)
	case 1:
		return suffix
	}
	panic(badIndex(a.Kind(), index))
}

func (a SuffixedPronoun) String() string {
	return "Suffix: " + display(a.Suffix)
}

// CompleteForm gives the full form of a possibly shortened word.
type CompleteForm struct {
	Complete *string `json:"complete" validate:"required"`
}

func (CompleteForm) Kind() Kind { return KindCompleteForm }

// Part returns the complete form for every index.
func (a CompleteForm) Part(_ string, index int) string {
	if index < 0 {
		panic(badIndex(a.Kind(), index))
	}
	return deref(a.Complete)
}

func (a CompleteForm) String() string {
	return "Complete form: " + display(a.Complete)
}

// PrefixedSuffixedMorpheme splits a complete form into prefix, stem, suffix.
type PrefixedSuffixedMorpheme struct {
	Prefix *string `json:"prefix"`
	Suffix *string `json:"suffix"`
}

func (PrefixedSuffixedMorpheme) Kind() Kind { return KindPrefixedSuffixedMorpheme }

func (a PrefixedSuffixedMorpheme) Part(word string, index int) string {
	prefix, suffix := deref(a.Prefix), deref(a.Suffix)
	switch index {
	case 0:
		return prefix
	case 1:
		return middle(word, prefix, suffix)
	case 2:
		return suffix
	}
	panic(badIndex(a.Kind(), index))
}

func (a PrefixedSuffixedMorpheme) String() string {
	return "Prefix: " + display(a.Prefix) + ", Suffix: " + display(a.Suffix)
}

// MorphemeType classifies one morpheme.
type MorphemeType struct {
	MorphemeType *string `json:"morpheme_type" validate:"required,oneof='preformative' 'passive prefix' 'verbal stem morpheme' 'verbal ending' 'nominal ending' 'emphatic marker'"`
}

func (MorphemeType) Kind() Kind { return KindMorphemeType }

// Part returns the category for every index.
func (a MorphemeType) Part(_ string, index int) string {
	if index < 0 {
		panic(badIndex(a.Kind(), index))
	}
	return deref(a.MorphemeType)
}

func (a MorphemeType) String() string {
	return "Morpheme type: " + display(a.MorphemeType)
}

func badIndex(k Kind, index int) string {
	return fmt.Sprintf("morph: invalid part index for %s: %d", k, index)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func display(s *string) string {
	if s == nil || *s == "" {
		return Empty
	}
	return *s
}

// Slicing counts code points so affixes never split a UTF-8 sequence.
// Offsets are clamped: a model-supplied affix longer than the word leaves
// an empty remainder.

func dropPrefix(word, prefix string) string {
	r := []rune(word)
	return string(r[clamp(len([]rune(prefix)), len(r)):])
}

func dropSuffix(word, suffix string) string {
	r := []rune(word)
	return string(r[:clamp(len(r)-len([]rune(suffix)), len(r))])
}

func middle(word, prefix, suffix string) string {
	r := []rune(word)
	start := clamp(len([]rune(prefix)), len(r))
	end := clamp(len(r)-len([]rune(suffix)), len(r))
	if start >= end {
		return ""
	}
	return string(r[start:end])
}

func clamp(i, n int) int {
	if i < 0 {
		return 0
	}
	if i > n {
		return n
	}
	return i
}
