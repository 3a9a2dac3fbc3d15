// Package extract pulls text and embedded raster images out of uploaded
// documents and runs OCR over the images.
package extract

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ErrExtraction means the document could not be opened or parsed at all.
// It is fatal to that document's ingestion.
var ErrExtraction = errors.New("document extraction failed")

// readPDF returns the concatenated text layer of every page in page order and
// the raw bytes of every embedded raster image across all pages.
func readPDF(path string) (string, [][]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", nil, fmt.Errorf("%w: open %s: %v", ErrExtraction, path, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return "", nil, fmt.Errorf("%w: stat %s: %v", ErrExtraction, path, err)
	}

	reader, err := pdf.NewReader(f, info.Size())
	if err != nil {
		return "", nil, fmt.Errorf("%w: parse %s: %v", ErrExtraction, path, err)
	}

	var text strings.Builder
	var images [][]byte
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}

		pageText, err := page.GetPlainText(nil)
		if err == nil {
			text.WriteString(pageText)
		}

		images = append(images, pageImages(page)...)
	}

	return text.String(), images, nil
}

// pageImages walks the page's XObject resources and collects image streams.
// A malformed resource entry is skipped, not fatal.
func pageImages(page pdf.Page) [][]byte {
	resources := page.V.Key("Resources")
	if resources.Kind() != pdf.Dict {
		return nil
	}
	xobjects := resources.Key("XObject")
	if xobjects.Kind() != pdf.Dict {
		return nil
	}

	var images [][]byte
	for _, name := range xobjects.Keys() {
		obj := xobjects.Key(name)
		if obj.Kind() != pdf.Stream {
			continue
		}
		if obj.Key("Subtype").Name() != "Image" {
			continue
		}
		data, err := io.ReadAll(obj.Reader())
		if err != nil || len(data) == 0 {
			continue
		}
		images = append(images, data)
	}
	return images
}
