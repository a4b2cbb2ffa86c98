package trace

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/xuri/excelize/v2"
)

// SheetName is the worksheet the XLSX sink writes.
const SheetName = "Trace"

var xlsxHeader = []any{"Sentence No.", "Sentence", "Depth", "Word", "Shape", "Answer"}

// XLSXSink writes one spreadsheet row per word and answer event. The file is
// saved on Close.
type XLSXSink struct {
	path     string
	f        *excelize.File
	row      int
	sentence string
	words    map[int]string // word under analysis per depth
}

// NewXLSXSink prepares a workbook saved to path on Close.
func NewXLSXSink(path string) (*XLSXSink, error) {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("creating xlsx directory: %w", err)
		}
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", SheetName); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet: %w", err)
	}
	if err := f.SetSheetRow(SheetName, "A1", &xlsxHeader); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing header: %w", err)
	}
	return &XLSXSink{path: path, f: f, row: 1, words: map[int]string{}}, nil
}

// Write records word and answer events; the others only update context.
func (s *XLSXSink) Write(e Event) error {
	var values []any
	switch e.Type {
	case EventSentence:
		s.sentence = e.Text
		clear(s.words)
		return nil
	case EventWord:
		s.words[e.Depth] = e.Text
		values = []any{e.Sentence + 1, s.sentence, e.Depth, e.Text, "", ""}
	case EventAnswer:
		values = []any{e.Sentence + 1, s.sentence, e.Depth, s.words[e.Depth-1], e.Kind.String(), e.Text}
	default:
		return nil
	}

	s.row++
	cell, err := excelize.CoordinatesToCellName(1, s.row)
	if err != nil {
		return err
	}
	return s.f.SetSheetRow(SheetName, cell, &values)
}

// Close saves the workbook.
func (s *XLSXSink) Close() error {
	err := s.f.SaveAs(s.path)
	if cerr := s.f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return fmt.Errorf("saving xlsx: %w", err)
	}
	return nil
}
