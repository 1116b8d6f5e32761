package model

import (
	"mime"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// Format is the source format of an uploaded document
type Format string

const (
	FormatPDF      Format = "pdf"
	FormatText     Format = "text"
	FormatMarkdown Format = "markdown"
)

// Document represents an uploaded source document.
// Content holds the raw bytes and is only used during ingestion, Text is set
// once the text has been extracted.
type Document struct {
	ID       string   `json:"id"`
	Filename string   `json:"filename"`
	Format   Format   `json:"format"`
	Content  []byte   `json:"-"`
	Text     string   `json:"text,omitempty"`
	Metadata Metadata `json:"metadata,omitempty"`
}

// NewDocument creates a document from raw content.
// The ID defaults to the filename, the format is derived from the file extension.
// A filename without extension is read as text.
func NewDocument(filename string, content []byte, metadata Metadata) *Document {
	doc := &Document{
		ID:       filename,
		Filename: filename,
		Format:   DetectFormat(filename, ""),
		Content:  content,
		Metadata: metadata,
	}
	doc.EnsureID()
	return doc
}

// NewDocumentFromFile reads a file and creates a Document with the file content
func NewDocumentFromFile(filePath string, metadata Metadata) (*Document, error) {
	content, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	return NewDocument(filepath.Base(filePath), content, metadata), nil
}

// EnsureID sets a random ID if neither ID nor filename is set
func (d *Document) EnsureID() {
	if d.ID != "" {
		return
	}
	if d.Filename != "" {
		d.ID = d.Filename
		return
	}
	d.ID = uuid.New().String()
}

// FormatFromFilename maps a file extension to a Format.
// Unknown extensions return an empty format.
func FormatFromFilename(filename string) Format {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return FormatPDF
	case ".txt", ".text":
		return FormatText
	case ".md", ".markdown":
		return FormatMarkdown
	default:
		return ""
	}
}

// DetectFormat prefers the file extension and falls back to the content type.
// Without both an extension and a known content type the document is text,
// an unknown extension stays unsupported.
func DetectFormat(filename string, contentType string) Format {
	if format := FormatFromFilename(filename); format != "" {
		return format
	}
	if format := FormatFromContentType(contentType); format != "" {
		return format
	}
	if filepath.Ext(filename) == "" {
		return FormatText
	}
	return ""
}

// FormatFromContentType maps a MIME type to a Format
func FormatFromContentType(contentType string) Format {
	mediaType, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return ""
	}

	switch mediaType {
	case "application/pdf":
		return FormatPDF
	case "text/plain":
		return FormatText
	case "text/markdown", "text/x-markdown":
		return FormatMarkdown
	default:
		return ""
	}
}
