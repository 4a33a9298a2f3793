package renderer

import (
	"bytes"
	"strings"
	"unicode"

	"github.com/fumiama/go-docx"
	"github.com/pkg/errors"
)

// DefaultTitle heads a document created without a title.
const DefaultTitle = "Document"

// maxHeadingChars is the longest paragraph that can be promoted to a heading.
const maxHeadingChars = 100

// Run sizes in half-points.
const (
	titleSize    = "40"
	heading1Size = "32"
	heading2Size = "26"
)

// HeadingLevel classifies a paragraph: 1 for a short all-caps line, 2 for a short
// line whose text before the first colon is all caps, 0 for body text.
func HeadingLevel(paragraph string) (level int) {
	if len([]rune(paragraph)) >= maxHeadingChars {
		return level
	}

	switch {
	case isUpper(paragraph):
		level = 1
	case strings.Contains(paragraph, ":") && isUpper(strings.SplitN(paragraph, ":", 2)[0]):
		level = 2
	}
	return level
}

// CreateDOCX lays out text as a DOCX document under a title heading.
// Paragraphs are separated by blank lines.
func CreateDOCX(text, title string) (data []byte, err error) {
	if strings.TrimSpace(title) == "" {
		title = DefaultTitle
	}

	doc := docx.New().WithDefaultTheme()
	doc.AddParagraph().Justification("center").AddText(title).Bold().Size(titleSize)

	for _, para := range strings.Split(text, "\n\n") {
		if strings.TrimSpace(para) == "" {
			continue
		}

		p := doc.AddParagraph()
		switch HeadingLevel(para) {
		case 1:
			p.AddText(para).Bold().Size(heading1Size)
		case 2:
			p.AddText(para).Bold().Size(heading2Size)
		default:
			p.AddText(para)
		}
	}

	var buf bytes.Buffer
	_, err = doc.WriteTo(&buf)
	if err != nil {
		err = errors.Wrap(err, "failed to write DOCX")
		return data, err
	}

	data = buf.Bytes()
	return data, err
}

// WriteDOCX creates a DOCX document from text and writes it to outputPath.
func WriteDOCX(text, title, outputPath string) (err error) {
	var data []byte
	data, err = CreateDOCX(text, title)
	if err != nil {
		return err
	}

	err = writeFile(data, outputPath)
	return err
}

// isUpper reports whether s has at least one cased letter and no lower-case ones.
func isUpper(s string) (ok bool) {
	for _, r := range s {
		if unicode.IsLower(r) {
			ok = false
			return ok
		}
		if unicode.IsUpper(r) || unicode.IsTitle(r) {
			ok = true
		}
	}
	return ok
}
