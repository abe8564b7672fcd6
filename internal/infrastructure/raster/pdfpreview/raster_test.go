package pdfpreview

import (
	"bytes"
	"context"
	"image/png"
	"strings"
	"testing"

	"github.com/kirillkom/resume-insight/internal/core/domain"
)

func TestConvertRejectsNonPDFInput(t *testing.T) {
	converter := New()
	_, err := converter.Convert(context.Background(), []byte("plain text, not a pdf"))
	if !domain.IsKind(err, domain.ErrConversionFailed) {
		t.Fatalf("err = %v, want conversion failed kind", err)
	}
}

func TestConvertRejectsEmptyInput(t *testing.T) {
	converter := New()
	if _, err := converter.Convert(context.Background(), nil); err == nil {
		t.Fatalf("expected error for empty input")
	}
}

func TestRenderTextImageProducesPNG(t *testing.T) {
	data, err := renderTextImage([]string{"Jane Doe", "", "Senior Engineer"})
	if err != nil {
		t.Fatalf("renderTextImage: %v", err)
	}

	img, err := png.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a decodable png: %v", err)
	}
	bounds := img.Bounds()
	if bounds.Dx() != previewWidth || bounds.Dy() != previewHeight {
		t.Fatalf("bounds = %v, want %dx%d", bounds, previewWidth, previewHeight)
	}
}

func TestRenderTextImageHandlesOverflow(t *testing.T) {
	lines := make([]string, 200)
	for i := range lines {
		lines[i] = "overflowing line"
	}
	if _, err := renderTextImage(lines); err != nil {
		t.Fatalf("renderTextImage with overflow: %v", err)
	}
}

func TestWrapLinesSplitsLongLines(t *testing.T) {
	long := strings.Repeat("x", maxLineRunes*2+5)
	lines := wrapLines(long)
	if len(lines) != 3 {
		t.Fatalf("got %d lines, want 3", len(lines))
	}
	for _, line := range lines[:2] {
		if len([]rune(line)) != maxLineRunes {
			t.Fatalf("wrapped line length = %d, want %d", len([]rune(line)), maxLineRunes)
		}
	}
}
