package pipeline

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"
	"github.com/siherrmann/docqa/model"
)

// ExtractFunc extracts plain text from raw document content
type ExtractFunc func(content []byte) (string, error)

// DefaultExtractors returns the extractors for all supported formats
func DefaultExtractors() map[model.Format]ExtractFunc {
	return map[model.Format]ExtractFunc{
		model.FormatPDF:      PDFExtractor,
		model.FormatText:     PlainTextExtractor,
		model.FormatMarkdown: PlainTextExtractor,
	}
}

// PlainTextExtractor returns UTF-8 content as is, without a byte order mark
func PlainTextExtractor(content []byte) (string, error) {
	content = bytes.TrimPrefix(content, []byte("\xef\xbb\xbf"))
	if !utf8.Valid(content) {
		return "", fmt.Errorf("content is not valid UTF-8")
	}
	return string(content), nil
}

// PDFExtractor returns the plain text of all pages separated by blank lines
func PDFExtractor(content []byte) (text string, err error) {
	// The pdf reader panics on some malformed files
	defer func() {
		if r := recover(); r != nil {
			text, err = "", fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("open pdf: %w", err)
	}

	pages := make([]string, 0, reader.NumPage())
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			return "", fmt.Errorf("extract page %d: %w", i, err)
		}
		if pageText = strings.TrimSpace(pageText); pageText != "" {
			pages = append(pages, pageText)
		}
	}

	return strings.Join(pages, "\n\n"), nil
}

// extract runs the extractor for the document format
func extract(extractors map[model.Format]ExtractFunc, doc *model.Document) (string, error) {
	extractor, ok := extractors[doc.Format]
	if !ok {
		return "", &model.ExtractionError{DocumentID: doc.ID, Format: doc.Format, Err: model.ErrUnsupportedFormat}
	}

	text, err := extractor(doc.Content)
	if err != nil {
		return "", &model.ExtractionError{DocumentID: doc.ID, Format: doc.Format, Err: err}
	}

	return text, nil
}
