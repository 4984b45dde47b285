package extract

import (
	"archive/zip"
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strings"
)

const docxBody = "word/document.xml"

func docxText(data []byte) (string, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("failed to open docx archive: %w", err)
	}

	for _, f := range zr.File {
		if f.Name != docxBody {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return "", fmt.Errorf("failed to open %s: %w", docxBody, err)
		}
		defer rc.Close()

		limited := &io.LimitedReader{R: rc, N: maxDocumentXMLBytes}
		text, err := documentXMLText(limited)
		if err != nil && limited.N <= 0 {
			// cut off mid-element by the size cap; keep what was read
			return text, nil
		}
		return text, err
	}
	return "", fmt.Errorf("%s not found in archive", docxBody)
}

// documentXMLText collects <w:t> runs, one line per <w:p> paragraph. It
// stops once maxExtractedBytes of text have been collected.
func documentXMLText(r io.Reader) (string, error) {
	dec := xml.NewDecoder(r)
	var b strings.Builder
	inText := false

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return b.String(), fmt.Errorf("failed to parse %s: %w", docxBody, err)
		}

		full := false
		switch t := tok.(type) {
		case xml.StartElement:
			switch t.Name.Local {
			case "t":
				inText = true
			case "tab":
				full = appendCapped(&b, " ")
			}
		case xml.EndElement:
			switch t.Name.Local {
			case "t":
				inText = false
			case "p":
				full = appendCapped(&b, "\n")
			}
		case xml.CharData:
			if inText {
				full = appendCapped(&b, string(t))
			}
		}
		if full {
			return b.String(), nil
		}
	}
	return b.String(), nil
}
