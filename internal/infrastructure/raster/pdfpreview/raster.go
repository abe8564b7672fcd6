package pdfpreview

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"strings"

	"github.com/ledongthuc/pdf"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

const (
	previewWidth  = 612
	previewHeight = 792
	marginX       = 24
	marginY       = 28
	lineHeight    = 16
	maxLineRunes  = 80
)

// Converter renders a text-only preview of a PDF's first page. The
// preview exists for display beside the evaluation, not for fidelity,
// so layout is a plain monospaced flow of the extracted text.
type Converter struct{}

func New() *Converter {
	return &Converter{}
}

func (c *Converter) Convert(ctx context.Context, document []byte) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	reader, err := pdf.NewReader(bytes.NewReader(document), int64(len(document)))
	if err != nil {
		return nil, domain.WrapError(domain.ErrConversionFailed, "preview.convert", fmt.Errorf("parse pdf: %w", err))
	}
	if reader.NumPage() < 1 {
		return nil, domain.WrapError(domain.ErrConversionFailed, "preview.convert", fmt.Errorf("document has no pages"))
	}

	page := reader.Page(1)
	if page.V.IsNull() {
		return nil, domain.WrapError(domain.ErrConversionFailed, "preview.convert", fmt.Errorf("first page is empty"))
	}

	text, err := page.GetPlainText(nil)
	if err != nil {
		return nil, domain.WrapError(domain.ErrConversionFailed, "preview.convert", fmt.Errorf("extract text: %w", err))
	}

	return renderTextImage(wrapLines(text))
}

func wrapLines(text string) []string {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimRight(raw, " \t\r")
		if line == "" {
			lines = append(lines, "")
			continue
		}
		runes := []rune(line)
		for len(runes) > maxLineRunes {
			lines = append(lines, string(runes[:maxLineRunes]))
			runes = runes[maxLineRunes:]
		}
		lines = append(lines, string(runes))
	}
	return lines
}

func renderTextImage(lines []string) ([]byte, error) {
	img := image.NewRGBA(image.Rect(0, 0, previewWidth, previewHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	drawer := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: basicfont.Face7x13,
	}

	y := marginY
	for _, line := range lines {
		if y > previewHeight-lineHeight {
			break
		}
		drawer.Dot = fixed.P(marginX, y)
		drawer.DrawString(line)
		y += lineHeight
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, domain.WrapError(domain.ErrConversionFailed, "preview.render", err)
	}
	return buf.Bytes(), nil
}
