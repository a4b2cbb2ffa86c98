package morph

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"golang.org/x/text/unicode/norm"
)

// ErrInvalidAnswer is matched by every decode failure.
var ErrInvalidAnswer = errors.New("morph: invalid answer")

// DecodeError reports a payload that does not conform to its shape.
type DecodeError struct {
	Kind    Kind
	Payload string
	Err     error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("morph: invalid %s payload: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() []error { return []error{ErrInvalidAnswer, e.Err} }

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func structValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Decode validates a raw tool-call payload against this shape. The payload
// must be exactly one JSON object with no fields beyond the shape's own.
// Text values are NFC-normalized and trimmed before validation so affixes
// and words share one representation.
func (k Kind) Decode(payload string) (Answer, error) {
	fail := func(err error) (Answer, error) {
		return nil, &DecodeError{Kind: k, Payload: payload, Err: err}
	}
	trimmed := strings.TrimSpace(payload)
	if trimmed == "" {
		return fail(errors.New("empty payload"))
	}
	if trimmed[0] != '{' {
		return fail(errors.New("payload is not a JSON object"))
	}

	var (
		target any
		answer func() Answer
	)
	switch k {
	case KindListWords:
		var v WordList
		target, answer = &v, func() Answer {
			kept := v.Words[:0]
			for _, w := range v.Words {
				if w = Normalize(w); w != "" {
					kept = append(kept, w)
				}
			}
			v.Words = kept
			return v
		}
	case KindPrefixedAnalyticalWord:
		var v PrefixedAnalyticalWord
		target, answer = &v, func() Answer { normalizePtr(v.Prefix); return v }
	case KindSuffixedPronoun:
		var v SuffixedPronoun
		target, answer = &v, func() Answer { normalizePtr(v.Suffix); return v }
	case KindCompleteForm:
		var v CompleteForm
		target, answer = &v, func() Answer { normalizePtr(v.Complete); return v }
	case KindPrefixedSuffixedMorpheme:
		var v PrefixedSuffixedMorpheme
		target, answer = &v, func() Answer { normalizePtr(v.Prefix); normalizePtr(v.Suffix); return v }
	case KindMorphemeType:
		var v MorphemeType
		target, answer = &v, func() Answer {
			if v.MorphemeType != nil {
				s := strings.ToLower(Normalize(*v.MorphemeType))
				v.MorphemeType = &s
			}
			return v
		}
	default:
		return fail(fmt.Errorf("unknown kind %d", int(k)))
	}

	dec := json.NewDecoder(strings.NewReader(payload))
	dec.DisallowUnknownFields()
	if err := dec.Decode(target); err != nil {
		return fail(err)
	}
	if _, err := dec.Token(); err != io.EOF {
		return fail(errors.New("trailing data after JSON object"))
	}

	a := answer()
	if err := structValidator().Struct(a); err != nil {
		return fail(err)
	}
	return a, nil
}

// Normalize puts text into NFC and trims surrounding whitespace.
func Normalize(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}

func normalizePtr(s *string) {
	if s != nil {
		*s = Normalize(*s)
	}
}

// PayloadForLog returns the payload on a single line when it is JSON.
func PayloadForLog(payload string) string {
	var buf bytes.Buffer
	if err := json.Compact(&buf, []byte(payload)); err != nil {
		return payload
	}
	return buf.String()
}
