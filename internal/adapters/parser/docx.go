package parser

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/0xcro3dile/privategpt-go/internal/domain/ports"
)

const docxBody = "word/document.xml"

// DocxParser extracts paragraph text from Office Open XML documents locally.
type DocxParser struct{}

var _ ports.DocumentParser = DocxParser{}

func NewDocxParser() DocxParser {
	return DocxParser{}
}

// Parse returns one line per paragraph. Tabs and line breaks inside
// paragraphs are kept.
func (DocxParser) Parse(ctx context.Context, data []byte, filename string) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", filename, err)
	}

	var body *zip.File
	for _, f := range zr.File {
		if f.Name == docxBody {
			body = f
			break
		}
	}
	if body == nil {
		return "", fmt.Errorf("%s: missing %s", filename, docxBody)
	}

	rc, err := body.Open()
	if err != nil {
		return "", fmt.Errorf("reading %s: %w", docxBody, err)
	}
	defer rc.Close()

	return paragraphs(xml.NewDecoder(rc))
}

func (DocxParser) SupportedFormats() []string {
	return []string{"docx"}
}

func paragraphs(dec *xml.Decoder) (string, error) {
	var (
		out    []string
		para   strings.Builder
		inText bool
	)

	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return "", fmt.Errorf("decoding document xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				para.WriteByte('\t')
			case "br", "cr":
				para.WriteByte('\n')
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				out = append(out, para.String())
				para.Reset()
			}
		case xml.CharData:
			if inText {
				para.Write(t)
			}
		}
	}
	if para.Len() > 0 {
		out = append(out, para.String())
	}

	return strings.TrimSpace(strings.Join(out, "\n")), nil
}
