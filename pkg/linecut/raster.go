package linecut

import (
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
	"golang.org/x/image/vector"
)

// cropNRGBA copies the region r of img into a fresh NRGBA image with its
// origin at (0, 0).
func cropNRGBA(img image.Image, r image.Rectangle) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), img, r.Min, draw.Src)
	return dst
}

// rotateNRGBA applies the affine transform m to src, producing a nW x nH
// canvas. Pixels not covered by the transformed source keep the fill value.
func rotateNRGBA(src *image.NRGBA, m affine, nW, nH int, fill color.NRGBA) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, nW, nH))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(fill), image.Point{}, draw.Src)
	aff := f64.Aff3{m.A, m.B, m.C, m.D, m.E, m.F}
	draw.ApproxBiLinear.Transform(dst, aff, src, src.Bounds(), draw.Over, nil)
	return dst
}

// applyMask sets every pixel outside the polygon to the fill value. Any
// pixel the polygon touches counts as inside.
func applyMask(img *image.NRGBA, pts []Point, fill color.NRGBA) {
	b := img.Bounds()
	if b.Empty() || len(pts) == 0 {
		return
	}
	// Vertices address pixel centers, so the path is shifted by half a pixel;
	// together with the any-coverage test below this keeps boundary pixels
	// inside the mask.
	r := vector.NewRasterizer(b.Dx(), b.Dy())
	r.MoveTo(float32(pts[0].X)+0.5, float32(pts[0].Y)+0.5)
	for _, p := range pts[1:] {
		r.LineTo(float32(p.X)+0.5, float32(p.Y)+0.5)
	}
	r.ClosePath()

	mask := image.NewAlpha(b)
	r.Draw(mask, b, image.Opaque, image.Point{})

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if mask.AlphaAt(x, y).A == 0 {
				img.SetNRGBA(x, y, fill)
			}
		}
	}
}

// BrightestPixel returns the pixel with the highest mean channel intensity.
// For scanned text this approximates the page background, which is why it
// serves as the AutoFill value. A zero-size image yields opaque white.
func BrightestPixel(img image.Image) color.NRGBA {
	b := img.Bounds()
	best := color.NRGBA{R: 255, G: 255, B: 255, A: 255}
	bestSum := -1
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			c := color.NRGBAModel.Convert(img.At(x, y)).(color.NRGBA)
			sum := int(c.R) + int(c.G) + int(c.B)
			if sum > bestSum {
				bestSum = sum
				best = c
			}
		}
	}
	return best
}
