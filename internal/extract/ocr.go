package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os/exec"
	"strings"

	"golang.org/x/image/draw"

	_ "image/gif"
	_ "image/jpeg"
)

// ErrOCR means a single image failed recognition. Callers absorb it and treat
// that image as contributing no text.
var ErrOCR = errors.New("ocr failed")

// OCREngine recognizes text in one raster image.
type OCREngine interface {
	Recognize(ctx context.Context, imageData []byte) (string, error)
}

// TesseractEngine shells out to the tesseract binary with a fixed target
// language, feeding the image over stdin.
type TesseractEngine struct {
	binaryPath   string
	language     string
	minImageSide int
}

func NewTesseractEngine(binaryPath, language string, minImageSide int) *TesseractEngine {
	if binaryPath == "" {
		binaryPath = "tesseract"
	}
	if language == "" {
		language = "eng"
	}
	return &TesseractEngine{
		binaryPath:   binaryPath,
		language:     language,
		minImageSide: minImageSide,
	}
}

func (e *TesseractEngine) Recognize(ctx context.Context, imageData []byte) (string, error) {
	if len(imageData) == 0 {
		return "", fmt.Errorf("%w: empty image", ErrOCR)
	}

	input := e.preprocess(imageData)

	cmd := exec.CommandContext(ctx, e.binaryPath, "stdin", "stdout", "-l", e.language)
	cmd.Stdin = bytes.NewReader(input)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return "", fmt.Errorf("%w: %v: %s", ErrOCR, err, strings.TrimSpace(stderr.String()))
	}
	return strings.TrimSpace(stdout.String()), nil
}

// preprocess upscales images whose shorter side is below the threshold, which
// noticeably improves recognition on small embedded scans. Images Go cannot
// decode pass through untouched; tesseract handles more formats than we do.
func (e *TesseractEngine) preprocess(imageData []byte) []byte {
	if e.minImageSide <= 0 {
		return imageData
	}

	src, _, err := image.Decode(bytes.NewReader(imageData))
	if err != nil {
		return imageData
	}

	bounds := src.Bounds()
	shorter := bounds.Dx()
	if bounds.Dy() < shorter {
		shorter = bounds.Dy()
	}
	if shorter >= e.minImageSide || shorter == 0 {
		return imageData
	}

	scale := 2
	dst := image.NewRGBA(image.Rect(0, 0, bounds.Dx()*scale, bounds.Dy()*scale))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, bounds, draw.Over, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, dst); err != nil {
		return imageData
	}
	return buf.Bytes()
}
