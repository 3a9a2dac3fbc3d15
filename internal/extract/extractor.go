package extract

import (
	"context"
	"log"
	"strings"
)

// Extractor produces a single normalized text blob from a document: the page
// text layer first, then one OCR contribution per embedded image.
type Extractor struct {
	ocr OCREngine
}

func NewExtractor(ocr OCREngine) *Extractor {
	return &Extractor{ocr: ocr}
}

// ExtractAll opens the document at path and returns its combined text. An
// unopenable document fails with ErrExtraction; a single image failing OCR
// only contributes an empty string.
func (e *Extractor) ExtractAll(ctx context.Context, path string) (string, error) {
	pageText, images, err := readPDF(path)
	if err != nil {
		return "", err
	}

	ocrTexts := e.recognizeAll(ctx, images)

	combined := pageText
	if len(ocrTexts) > 0 {
		combined += "\n" + strings.Join(ocrTexts, "\n")
	}
	return combined, nil
}

// recognizeAll runs OCR over each image independently. One slot per image:
// a failed recognition contributes an empty string instead of aborting the
// remaining images.
func (e *Extractor) recognizeAll(ctx context.Context, images [][]byte) []string {
	texts := make([]string, 0, len(images))
	for i, img := range images {
		if e.ocr == nil {
			texts = append(texts, "")
			continue
		}
		text, err := e.ocr.Recognize(ctx, img)
		if err != nil {
			log.Printf("ocr image %d failed: %v", i, err)
			text = ""
		}
		texts = append(texts, text)
	}
	return texts
}
