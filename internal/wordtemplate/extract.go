// Package wordtemplate reads uploaded Word templates
package wordtemplate

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

const (
	// DocxMimeType is the media type of a Word document
	DocxMimeType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

	documentPart = "word/document.xml"
	// maxDocumentPart bounds the decompressed main document part
	maxDocumentPart = 32 << 20
)

// ErrNotDocx is returned when the data is not a Word document
var ErrNotDocx = errors.New("not a docx document")

// DetectType returns the media type of data
func DetectType(data []byte) string {
	return mimetype.Detect(data).String()
}

// isZipBased reports whether the detected type is a zip container, docx included
func isZipBased(mtype *mimetype.MIME) bool {
	for m := mtype; m != nil; m = m.Parent() {
		if m.Is(DocxMimeType) || m.Is("application/zip") {
			return true
		}
	}
	return false
}

// ExtractText returns the raw text of a .docx file: paragraphs separated by newlines, tabs
// and breaks kept. Text split across runs is joined so tokens such as {ownerName} survive.
func ExtractText(data []byte) (string, error) {
	if !isZipBased(mimetype.Detect(data)) {
		return "", ErrNotDocx
	}

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNotDocx, err)
	}

	var part *zip.File
	for _, f := range zr.File {
		if f.Name == documentPart {
			part = f
			break
		}
	}
	if part == nil {
		return "", fmt.Errorf("%w: missing %s", ErrNotDocx, documentPart)
	}

	rc, err := part.Open()
	if err != nil {
		return "", fmt.Errorf("failed to open document part: %w", err)
	}
	defer rc.Close()

	return documentText(io.LimitReader(rc, maxDocumentPart))
}

// documentText walks the WordprocessingML body and collects its text
func documentText(r io.Reader) (string, error) {
	decoder := xml.NewDecoder(r)

	var (
		b      strings.Builder
		inText bool
		inTabs bool // tab stop definitions of paragraph properties
	)
	for {
		tok, err := decoder.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("failed to parse document part: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tabs":
				inTabs = true
			case "tab":
				if !inTabs {
					b.WriteByte('\t')
				}
			case "br", "cr":
				b.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "tabs":
				inTabs = false
			case "p":
				b.WriteByte('\n')
			}
		case xml.CharData:
			if inText {
				b.Write(t)
			}
		}
	}

	return strings.TrimRight(b.String(), "\n"), nil
}
