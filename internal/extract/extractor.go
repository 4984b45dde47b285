package extract

import (
	"context"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog/log"
)

type format int

const (
	formatUnknown format = iota
	formatText
	formatPDF
	formatDOCX
	formatImage
)

const docxMIME = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"

const (
	// maxExtractedBytes caps the text kept from one document. Compressed
	// formats can expand far beyond the upload limit.
	maxExtractedBytes = 1 << 20
	// maxDocumentXMLBytes caps how much of word/document.xml is decompressed
	maxDocumentXMLBytes = 8 << 20
)

// OCR turns an image or scanned document into text
type OCR interface {
	Recognize(ctx context.Context, data []byte, mimeType string) (string, error)
}

// Extractor pulls best-effort plain text out of uploaded documents. It never
// fails: anything it cannot read yields an empty string.
type Extractor struct {
	ocr         OCR
	ocrMinChars int
}

// New returns an extractor. ocr may be nil, which disables the OCR fallback.
func New(ocr OCR, ocrMinChars int) *Extractor {
	return &Extractor{ocr: ocr, ocrMinChars: ocrMinChars}
}

func (e *Extractor) Extract(ctx context.Context, data []byte, fileName string) string {
	if len(data) == 0 {
		return ""
	}

	mt := mimetype.Detect(data)
	switch detectFormat(mt, fileName) {
	case formatText:
		return plainText(data)
	case formatPDF:
		text, err := pdfText(data)
		if err != nil {
			log.Debug().Err(err).Str("file", fileName).Msg("PDF text extraction failed")
		}
		if visibleChars(text) < e.ocrMinChars {
			if ocrText := e.recognize(ctx, data, mt.String(), fileName); visibleChars(ocrText) > visibleChars(text) {
				return ocrText
			}
		}
		return text
	case formatDOCX:
		text, err := docxText(data)
		if err != nil {
			log.Debug().Err(err).Str("file", fileName).Msg("DOCX text extraction failed")
		}
		return text
	case formatImage:
		return e.recognize(ctx, data, mt.String(), fileName)
	default:
		log.Debug().Str("file", fileName).Str("mime", mt.String()).Msg("Unsupported document format")
		return ""
	}
}

func (e *Extractor) recognize(ctx context.Context, data []byte, mimeType, fileName string) string {
	if e.ocr == nil {
		return ""
	}
	text, err := e.ocr.Recognize(ctx, data, mimeType)
	if err != nil {
		log.Warn().Err(err).Str("file", fileName).Msg("OCR fallback failed")
		return ""
	}
	var b strings.Builder
	appendCapped(&b, text)
	return b.String()
}

func visibleChars(text string) int {
	return utf8.RuneCountInString(strings.TrimSpace(text))
}

// appendCapped writes as much of s as fits under maxExtractedBytes without
// splitting a rune, and reports whether the cap has been reached.
func appendCapped(b *strings.Builder, s string) bool {
	room := maxExtractedBytes - b.Len()
	if room <= 0 {
		return true
	}
	if len(s) <= room {
		b.WriteString(s)
		return b.Len() >= maxExtractedBytes
	}
	cut := room
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	b.WriteString(s[:cut])
	return true
}

func detectFormat(mt *mimetype.MIME, fileName string) format {
	for m := mt; m != nil; m = m.Parent() {
		switch {
		case m.Is("application/pdf"):
			return formatPDF
		case m.Is(docxMIME):
			return formatDOCX
		case m.Is("text/plain"):
			return formatText
		case strings.HasPrefix(m.String(), "image/"):
			return formatImage
		}
	}

	// sniffing found nothing useful, fall back to the declared extension
	switch strings.ToLower(filepath.Ext(fileName)) {
	case ".txt", ".md", ".csv":
		return formatText
	case ".pdf":
		return formatPDF
	case ".docx":
		return formatDOCX
	case ".png", ".jpg", ".jpeg", ".tif", ".tiff", ".bmp", ".webp":
		return formatImage
	}
	return formatUnknown
}

func plainText(data []byte) string {
	var b strings.Builder
	if utf8.Valid(data) {
		appendCapped(&b, string(data))
	} else {
		appendCapped(&b, strings.ToValidUTF8(string(data), ""))
	}
	return b.String()
}
