// Package docparse validates uploaded resume files and extracts their
// textual content. PDFs are parsed directly; scanned documents and images
// only get as far as type detection here and are handed to OCR by the
// caller.
package docparse

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"time"
)

// FileType is the detected document type, derived from content signatures.
type FileType string

const (
	FileTypePDF  FileType = "pdf"
	FileTypeJPEG FileType = "jpeg"
	FileTypePNG  FileType = "png"
)

// Validation and parse failures the caller is expected to branch on.
var (
	ErrUnsupportedType  = errors.New("unsupported file type")
	ErrTypeMismatch     = errors.New("file extension does not match content")
	ErrTooLarge         = errors.New("file exceeds size limit")
	ErrDangerousName    = errors.New("file name contains forbidden characters")
	ErrDangerousContent = errors.New("file contains suspicious content")
	ErrEmptyFile        = errors.New("file is empty")
	ErrNoText           = errors.New("document has no extractable text")
)

// Link is a hyperlink annotation anchored to the words under its rectangle.
type Link struct {
	AnchorText string `json:"anchor_text"`
	URI        string `json:"uri"`
}

// Page holds the reading-order text of one page and its link annotations.
type Page struct {
	PageNumber int    `json:"page_number"`
	Text       string `json:"text"`
	Links      []Link `json:"links,omitempty"`
}

// Document is the extraction result for one file.
type Document struct {
	FileType    FileType  `json:"file_type"`
	Pages       []Page    `json:"pages"`
	TotalPages  int       `json:"total_pages"`
	ProcessedAt time.Time `json:"processed_at"`
}

// FullText concatenates the page texts in order, separated by blank lines.
func (d *Document) FullText() string {
	parts := make([]string, 0, len(d.Pages))
	for _, p := range d.Pages {
		if p.Text != "" {
			parts = append(parts, p.Text)
		}
	}
	return strings.Join(parts, "\n\n")
}

// Links returns every link annotation across all pages, page order preserved.
func (d *Document) Links() []Link {
	var links []Link
	for _, p := range d.Pages {
		links = append(links, p.Links...)
	}
	return links
}

// HasText reports whether any page produced non-whitespace text.
func (d *Document) HasText() bool {
	for _, p := range d.Pages {
		if strings.TrimSpace(p.Text) != "" {
			return true
		}
	}
	return false
}

var (
	pdfMagic  = []byte("%PDF-")
	jpegMagic = []byte{0xFF, 0xD8, 0xFF}
	pngMagic  = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1A, '\n'}
)

// SniffType detects the file type from its leading bytes. Detection never
// trusts the file name.
func SniffType(data []byte) (FileType, bool) {
	switch {
	case bytes.HasPrefix(data, pdfMagic):
		return FileTypePDF, true
	case bytes.HasPrefix(data, jpegMagic):
		return FileTypeJPEG, true
	case bytes.HasPrefix(data, pngMagic):
		return FileTypePNG, true
	default:
		return "", false
	}
}

// TypeFromExtension maps a file name extension to the expected type.
func TypeFromExtension(name string) (FileType, bool) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".pdf":
		return FileTypePDF, true
	case ".jpg", ".jpeg":
		return FileTypeJPEG, true
	case ".png":
		return FileTypePNG, true
	default:
		return "", false
	}
}
