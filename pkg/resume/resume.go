// Package resume reads CV text out of PDF, DOCX and plain text files.
package resume

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/ledongthuc/pdf"
	"github.com/pkg/errors"
	"golang.org/x/text/unicode/norm"
)

// Supported document kinds.
const (
	KindPDF      = "pdf"
	KindDOCX     = "docx"
	KindText     = "txt"
	KindMarkdown = "md"
)

// ErrUnsupportedType is returned for a document kind that cannot be read.
var ErrUnsupportedType = errors.New("unsupported document type")

// KindOf returns the document kind for path, taken from its extension.
func KindOf(path string) (kind string) {
	kind = normalizeKind(filepath.Ext(path))
	return kind
}

// Load reads the file at path and extracts its text.
func Load(path string) (text string, err error) {
	var data []byte
	data, err = os.ReadFile(path)
	if err != nil {
		err = errors.Wrapf(err, "failed to read CV file: %s", path)
		return text, err
	}

	text, err = ExtractText(data, KindOf(path))
	if err != nil {
		err = errors.Wrapf(err, "failed to extract text from %s", path)
		return text, err
	}

	if text == "" {
		err = errors.Errorf("no text found in %s", path)
		return text, err
	}

	return text, err
}

// ExtractText returns the NFC-normalized text of a document. kind is an extension,
// with or without the leading dot, in any case.
func ExtractText(data []byte, kind string) (text string, err error) {
	switch normalizeKind(kind) {
	case KindPDF:
		text, err = pdfText(data)
	case KindDOCX:
		text, err = docxText(data)
	case KindText, KindMarkdown:
		text = string(data)
	default:
		err = errors.Wrapf(ErrUnsupportedType, "%q", kind)
	}
	if err != nil {
		return text, err
	}

	text = clean(text)
	return text, err
}

func pdfText(data []byte) (text string, err error) {
	var reader *pdf.Reader
	reader, err = pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "failed to open PDF")
		return text, err
	}

	var plain io.Reader
	plain, err = reader.GetPlainText()
	if err != nil {
		err = errors.Wrap(err, "failed to read PDF text")
		return text, err
	}

	var buf bytes.Buffer
	_, err = buf.ReadFrom(plain)
	if err != nil {
		err = errors.Wrap(err, "failed to read PDF text")
		return text, err
	}

	text = buf.String()
	return text, err
}

func docxText(data []byte) (text string, err error) {
	var doc *docx.Docx
	doc, err = docx.Parse(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		err = errors.Wrap(err, "failed to open DOCX")
		return text, err
	}

	lines := make([]string, 0, len(doc.Document.Body.Items))
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, v.String())
		case *docx.Table:
			lines = append(lines, v.String())
		}
	}

	text = strings.Join(lines, "\n")
	return text, err
}

// clean normalizes line endings and Unicode form and trims the result.
func clean(text string) (out string) {
	out = strings.ReplaceAll(text, "\r\n", "\n")
	out = norm.NFC.String(out)
	out = strings.TrimSpace(out)
	return out
}

func normalizeKind(kind string) (out string) {
	out = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(kind), "."))
	switch out {
	case "markdown":
		out = KindMarkdown
	case "text":
		out = KindText
	}
	return out
}
