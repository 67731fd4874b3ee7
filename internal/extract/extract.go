// Package extract pulls plain text out of resume and job description files.
package extract

import (
	"bytes"
	"errors"
	"fmt"
	"html"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/nguyenthenguyen/docx"
)

// ErrUnsupportedFormat is returned for file types we cannot read
var ErrUnsupportedFormat = errors.New("unsupported file format")

// ErrEmptyDocument is returned when a document contains no text
var ErrEmptyDocument = errors.New("document is empty or unreadable")

// MIME types accepted by FromBytes
const (
	MIMEText = "text/plain"
	MIMEPDF  = "application/pdf"
	MIMEDocx = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

var (
	paragraphEnd = regexp.MustCompile(`</w:p>`)
	xmlTag       = regexp.MustCompile(`<[^>]+>`)
	blankRuns    = regexp.MustCompile(`\n{3,}`)
)

// FromFile extracts text from a .pdf, .docx, .txt or .md file
func FromFile(path string) (string, error) {
	mime, err := MIMEFor(path)
	if err != nil {
		return "", err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", path, err)
	}

	return FromBytes(mime, data)
}

// MIMEFor maps a file extension to a supported MIME type
func MIMEFor(path string) (string, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".pdf":
		return MIMEPDF, nil
	case ".docx":
		return MIMEDocx, nil
	case ".txt", ".md", "":
		return MIMEText, nil
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(path))
	}
}

// FromBytes extracts text from an in-memory document of the given MIME type
func FromBytes(mime string, data []byte) (string, error) {
	var (
		text string
		err  error
	)

	switch mime {
	case MIMEText:
		text = string(data)
	case MIMEPDF:
		text, err = pdfText(data)
	case MIMEDocx:
		text, err = docxText(data)
	default:
		return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, mime)
	}
	if err != nil {
		return "", err
	}

	text = strings.TrimSpace(strings.ReplaceAll(text, "\r\n", "\n"))
	if text == "" {
		return "", ErrEmptyDocument
	}
	return text, nil
}

func pdfText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to read pdf: %w", err)
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(text)
		b.WriteString("\n")
	}
	return b.String(), nil
}

func docxText(data []byte) (string, error) {
	doc, err := docx.ReadDocxFromMemory(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to parse docx: %w", err)
	}
	defer doc.Close()

	return StripDocumentXML(doc.Editable().GetContent()), nil
}

// StripDocumentXML converts WordprocessingML body XML into plain text,
// one line per paragraph
func StripDocumentXML(content string) string {
	content = paragraphEnd.ReplaceAllString(content, "\n")
	content = xmlTag.ReplaceAllString(content, "")
	content = html.UnescapeString(content)
	return blankRuns.ReplaceAllString(content, "\n\n")
}
