package syrmorph

import (
	"errors"

	"github.com/brunobiangulo/syrmorph/corpus"
	"github.com/brunobiangulo/syrmorph/morph"
)

var (
	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("syrmorph: invalid configuration")

	// ErrUnknownModel is returned for a model alias outside the model table.
	ErrUnknownModel = errors.New("syrmorph: unknown model")

	// ErrInputNotFound is returned when the corpus file does not exist.
	ErrInputNotFound = errors.New("syrmorph: input file not found")

	// ErrEmptySentence is returned when there is nothing to decompose.
	ErrEmptySentence = errors.New("syrmorph: empty sentence")

	// ErrUnsupportedFormat is returned for corpus files no reader handles.
	ErrUnsupportedFormat = corpus.ErrUnsupportedFormat

	// ErrMalformedTree is returned when the decomposition tree asks for a
	// part its answer shape does not have.
	ErrMalformedTree = morph.ErrMalformedTree

	// ErrInvalidAnswer wraps every payload that fails validation.
	ErrInvalidAnswer = morph.ErrInvalidAnswer
)
