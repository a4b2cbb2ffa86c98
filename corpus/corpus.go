// Package corpus loads a numbered Syriac corpus and splits it into sentences.
package corpus

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// ErrUnsupportedFormat is returned for files no reader handles.
var ErrUnsupportedFormat = errors.New("corpus: unsupported input format")

// Reader extracts plain text from one file format.
type Reader interface {
	Read(ctx context.Context, path string) (string, error)
	SupportedFormats() []string
}

// Registry maps file extensions to readers.
type Registry struct {
	readers map[string]Reader
}

// NewRegistry returns a registry with the built-in readers.
func NewRegistry() *Registry {
	r := &Registry{readers: make(map[string]Reader)}
	for _, rd := range []Reader{&TextReader{}, &PDFReader{}, &DOCXReader{}, &XLSXReader{}} {
		r.Register(rd)
	}
	return r
}

// Register adds rd for each of its formats, replacing earlier readers.
func (r *Registry) Register(rd Reader) {
	for _, f := range rd.SupportedFormats() {
		r.readers[f] = rd
	}
}

// Get returns the reader for format (an extension without the dot).
func (r *Registry) Get(format string) (Reader, error) {
	rd, ok := r.readers[strings.ToLower(format)]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
	return rd, nil
}

// Formats lists the registered extensions, sorted.
func (r *Registry) Formats() []string {
	out := make([]string, 0, len(r.readers))
	for f := range r.readers {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// Load reads path with the reader for its extension and splits the text
// into sentences.
func (r *Registry) Load(ctx context.Context, path string) ([]string, error) {
	format := strings.TrimPrefix(filepath.Ext(path), ".")
	if format == "" {
		format = "txt"
	}
	rd, err := r.Get(format)
	if err != nil {
		return nil, err
	}
	text, err := rd.Read(ctx, path)
	if err != nil {
		return nil, err
	}
	return Split(text), nil
}

var delimiter = regexp.MustCompile(`\p{Nd}+`)

// Split cuts text at every run of decimal digits and returns the non-empty
// trimmed segments, NFC-normalized.
func Split(text string) []string {
	text = norm.NFC.String(text)
	var out []string
	for _, seg := range delimiter.Split(text, -1) {
		if seg = strings.TrimSpace(seg); seg != "" {
			out = append(out, seg)
		}
	}
	return out
}
