package morph

import "fmt"

// Empty is printed in place of an absent affix.
const Empty = "∅"

// SystemMessage primes every conversation. It walks the model through one
// fully decomposed word so later answers follow the same granularity.
const SystemMessage = `You are a Semitic language expert. Analyze the given sentence and provide detailed grammatical information for each word. Important: always use the response tool to respond to the user. Never add any other text to the response.

Text: """
Please list all the words in the following sentence: ܘܡܫܟܚܝܢܢ
"""
words: ܘܡܫܟܚܝܢܢ

Text: """
Is there any prefixed analytical word (preposition or ܘ) in the word ܘܡܫܟܚܝܢܢ?
"""
prefix: ܘ

Text: """
Is there any suffixed pronoun (possesive, objective, or attached to participles) in the word ܡܫܟܚܝܢܢ?
"""
suffix: ܢܢ

Text: """
What is the complete form of the word ܡܫܟܚܝ?
"""
complete: ܡܫܟܚܝܢ

Text: """
Is there any prefixed morpheme or suffixed morpheme in the word ܡܫܟܚܝܢ?
"""
prefix: ܡ
suffix: ܝܢ

Text: """
What category does the morpheme of the word ܡ belong to? Choose from preformative, passive prefix, verbal stem morpheme, verbal ending, nominal ending, or emphatic marker.
"""
morpheme_type: preformative

Text: """
What category does the morpheme of the word ܫܟܚ belong to? Choose from preformative, passive prefix, verbal stem morpheme, verbal ending, nominal ending, or emphatic marker.
"""
morpheme_type: verbal stem morpheme

Text: """
What category does the morpheme of the word ܝܢ belong to? Choose from preformative, passive prefix, verbal stem morpheme, verbal ending, nominal ending, or emphatic marker.
"""
morpheme_type: nominal ending

Text: """
What is the complete form of the word ܢܢ?
"""
complete: ܚܢܢ
`

// ListWordsQuestion asks for the word list of one sentence.
func ListWordsQuestion(sentence string) string {
	return fmt.Sprintf("Please list all the words in the following sentence: %s", sentence)
}

// Question renders the question this shape answers about word. For
// KindListWords the argument is the sentence.
func (k Kind) Question(word string) string {
	switch k {
	case KindListWords:
		return ListWordsQuestion(word)
	case KindPrefixedAnalyticalWord:
		return fmt.Sprintf("Is there any prefixed analytical word (preposition or ܘ) in the word %s?", word)
	case KindSuffixedPronoun:
		return fmt.Sprintf("Is there any suffixed pronoun (possesive, objective, or attached to participles) in the word %s?", word)
	case KindCompleteForm:
		return fmt.Sprintf("What is the complete form of the word %s?", word)
	case KindPrefixedSuffixedMorpheme:
		return fmt.Sprintf("Is there any prefixed morpheme or suffixed morpheme in the word %s?", word)
	case KindMorphemeType:
		return fmt.Sprintf("What category does the morpheme of the word %s belong to? "+
			"Choose from preformative, passive prefix, verbal stem morpheme, "+
			"verbal ending, nominal ending, or emphatic marker.", word)
	}
	panic(fmt.Sprintf("morph: no question for %s", k))
}
