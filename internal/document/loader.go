// Package document turns raw transcript files (plain text or PDF) into cleaned text.
package document

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"golang.org/x/text/encoding/charmap"

	"finsense-go/internal/types"
)

const (
	EncodingUTF8        = "utf-8"
	EncodingWindows1252 = "windows-1252"
	EncodingPDF         = "pdf"
)

// DocumentReadError reports a file that could not be read or decoded.
type DocumentReadError struct {
	Path string
	Err  error
}

func (e *DocumentReadError) Error() string {
	return fmt.Sprintf("read document %s: %v", e.Path, e.Err)
}

func (e *DocumentReadError) Unwrap() error { return e.Err }

// Supported reports whether the loader handles the file's extension.
func Supported(path string) bool {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".txt", ".pdf":
		return true
	}
	return false
}

// Read loads the file and decodes it to UTF-8. PDFs are converted to plain text.
func Read(path string) (types.RawDocument, error) {
	if strings.EqualFold(filepath.Ext(path), ".pdf") {
		text, err := extractPDFText(path)
		if err != nil {
			return types.RawDocument{}, &DocumentReadError{Path: path, Err: err}
		}
		return types.RawDocument{Path: path, Content: []byte(text), Encoding: EncodingPDF}, nil
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return types.RawDocument{}, &DocumentReadError{Path: path, Err: err}
	}
	content, enc, err := decodeText(b)
	if err != nil {
		return types.RawDocument{}, &DocumentReadError{Path: path, Err: err}
	}
	return types.RawDocument{Path: path, Content: content, Encoding: enc}, nil
}

// Load returns the cleaned text of a document. On failure the text is empty and the
// error is a *DocumentReadError; callers log it and move on.
func Load(path string) (string, error) {
	raw, err := Read(path)
	if err != nil {
		return "", err
	}
	return Clean(string(raw.Content)), nil
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

func decodeText(b []byte) ([]byte, string, error) {
	b = bytes.TrimPrefix(b, utf8BOM)
	if utf8.Valid(b) {
		return b, EncodingUTF8, nil
	}
	out, err := charmap.Windows1252.NewDecoder().Bytes(b)
	if err != nil {
		return nil, "", fmt.Errorf("decode %s: %w", EncodingWindows1252, err)
	}
	return out, EncodingWindows1252, nil
}

// extractPDFText reads every page's plain text. The pdf package panics on some corrupt
// inputs (bad xref, zlib headers); those become errors.
func extractPDFText(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("panic during PDF extraction: %v", r)
		}
	}()

	f, r, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}
	defer f.Close()

	var sb strings.Builder
	for i := 1; i <= r.NumPage(); i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(pageText)
		sb.WriteString("\n")
	}
	return sb.String(), nil
}

var (
	crlf            = regexp.MustCompile(`\r\n?`)
	trailingSpace   = regexp.MustCompile(`[ \t]+\n`)
	blankLineStreak = regexp.MustCompile(`\n{3,}`)
)

// Clean normalises text for the line-anchored segmenter: null bytes become spaces,
// line endings become \n, trailing blanks are stripped, and runs of 3+ newlines
// collapse to a single blank line.
func Clean(s string) string {
	s = strings.ReplaceAll(s, "\x00", " ")
	s = crlf.ReplaceAllString(s, "\n")
	s = trailingSpace.ReplaceAllString(s, "\n")
	s = blankLineStreak.ReplaceAllString(s, "\n\n")
	return strings.TrimSpace(s)
}
