// Package proofsheet renders extracted line samples into a PDF for human
// review: one row per line with the cutout image, its id, and its
// transcription. Useful for eyeballing polygon and rotation quality before
// a training run.
package proofsheet

import (
	"bytes"
	"fmt"
	"image/png"

	"codeberg.org/go-pdf/fpdf"

	"github.com/gardar/pagecut/pkg/dataset"
)

const (
	pageMargin = 36.0 // pt
	rowGap     = 10.0 // pt between samples
	lineHeight = 12.0 // pt, caption text
	maxImageH  = 96.0 // pt, taller line images are scaled down
)

// Build renders the samples into a portrait A4 PDF and returns the document
// bytes. Samples with zero-size images get a caption only.
func Build(samples []dataset.Sample) ([]byte, error) {
	pdf := fpdf.New("P", "pt", "A4", "")
	pdf.SetFont("Helvetica", "", 9)
	pdf.AddPage()

	pageW, pageH := pdf.GetPageSize()
	usableW := pageW - 2*pageMargin
	y := pageMargin

	for i, s := range samples {
		imgW, imgH := 0.0, 0.0
		hasImage := s.Image != nil && !s.Image.Bounds().Empty()
		if hasImage {
			b := s.Image.Bounds()
			// Fit the row width, cap the height.
			scale := usableW / float64(b.Dx())
			if h := float64(b.Dy()) * scale; h > maxImageH {
				scale = maxImageH / float64(b.Dy())
			}
			imgW = float64(b.Dx()) * scale
			imgH = float64(b.Dy()) * scale
		}

		rowH := imgH + 2*lineHeight + rowGap
		if y+rowH > pageH-pageMargin {
			pdf.AddPage()
			y = pageMargin
		}

		if hasImage {
			var buf bytes.Buffer
			if err := png.Encode(&buf, s.Image); err != nil {
				return nil, fmt.Errorf("failed to encode line image %s: %w", s.Meta.ID, err)
			}
			name := fmt.Sprintf("line%d", i)
			opts := fpdf.ImageOptions{ImageType: "PNG"}
			pdf.RegisterImageOptionsReader(name, opts, &buf)
			pdf.ImageOptions(name, pageMargin, y, imgW, imgH, false, opts, 0, "")
			y += imgH
		}

		caption := s.Meta.ID
		if s.HasText {
			caption += "  |  " + s.Text
		}
		pdf.Text(pageMargin, y+lineHeight, caption)
		y += 2*lineHeight + rowGap
	}

	var out bytes.Buffer
	if err := pdf.Output(&out); err != nil {
		return nil, fmt.Errorf("failed to generate PDF: %w", err)
	}
	return out.Bytes(), nil
}
