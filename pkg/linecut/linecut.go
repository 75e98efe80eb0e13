// Package linecut implements the geometric extraction of text-line images
// from page scans. Given a page image and a line polygon in annotation
// coordinates it produces a normalized sub-image: cropped to the polygon
// bounds, optionally counter-rotated to undo skew, and with pixels outside
// the polygon replaced by a fill value.
//
// The package is pure image/geometry code and knows nothing about layout
// documents; coordinates arrive as plain points.
//
// Main Functions:
//
// - ParsePoints: decodes the "x,y x,y ..." polygon encoding
// - Cutout: extracts the line image for a polygon
// - BrightestPixel: the fill value used by AutoFill
package linecut

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strconv"
	"strings"
)

// Mode selects how tightly the cutout follows the polygon.
type Mode int

const (
	// ModeBox cuts the straight axis-aligned rectangle around the polygon.
	ModeBox Mode = iota
	// ModePolygon cuts the polygon itself, filling outside pixels.
	ModePolygon
	// ModeMBR cuts the minimum-area bounding rectangle around the polygon.
	ModeMBR
)

// Angle is either a fixed clockwise rotation in degrees or a request to
// derive the rotation from the polygon's minimum-area rectangle.
type Angle struct {
	auto bool
	deg  float64
}

// Deg returns a fixed clockwise angle in degrees.
func Deg(deg float64) Angle { return Angle{deg: deg} }

// AutoAngle derives the angle from the minimum-area rectangle of the
// polygon, so skewed text lines come out horizontal.
func AutoAngle() Angle { return Angle{auto: true} }

// Fill is either a fixed pixel value or a request to use the brightest pixel
// of the crop, which approximates the page background for scanned text.
type Fill struct {
	auto bool
	c    color.Color
}

// FillColor returns a fixed fill value.
func FillColor(c color.Color) Fill { return Fill{c: c} }

// AutoFill resolves the fill from the brightest pixel of the unrotated crop.
func AutoFill() Fill { return Fill{auto: true} }

// Point is a polygon vertex in (x, y) pixel coordinates.
type Point struct {
	X, Y float64
}

// ParsePoints decodes a PAGE Coords points attribute: whitespace-separated
// "x,y" integer tokens.
func ParsePoints(s string) ([]Point, error) {
	fields := strings.Fields(s)
	pts := make([]Point, 0, len(fields))
	for _, f := range fields {
		xy := strings.Split(f, ",")
		if len(xy) != 2 {
			return nil, fmt.Errorf("invalid point %q in %q", f, s)
		}
		x, err := strconv.Atoi(xy[0])
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", f, err)
		}
		y, err := strconv.Atoi(xy[1])
		if err != nil {
			return nil, fmt.Errorf("invalid point %q: %w", f, err)
		}
		pts = append(pts, Point{X: float64(x), Y: float64(y)})
	}
	return pts, nil
}

// Cutout extracts the sub-image for one line polygon from a page image.
//
// The polygon is scaled first, mapping annotation coordinates onto an image
// that may have been loaded at a different resolution. The angle is the
// clockwise skew of the line; the crop is counter-rotated by it, with the
// canvas expanded so no content is clipped and exposed areas set to fill.
// In ModePolygon and ModeMBR, pixels outside the (possibly simplified)
// polygon are set to fill as well.
//
// A degenerate polygon is never an error: fewer than three points, all
// points identical, or bounds that miss the image entirely yield a zero-size
// image, which callers must treat as "no usable sample".
func Cutout(img image.Image, polygon []Point, mode Mode, angle Angle, fill Fill, scale float64) image.Image {
	if degenerate(polygon) {
		return emptyImage()
	}

	// Scale into image coordinates, truncating like the integer annotation
	// grid the coordinates came from.
	pts := make([]Point, len(polygon))
	for i, p := range polygon {
		pts[i] = Point{X: math.Trunc(scale * p.X), Y: math.Trunc(scale * p.Y)}
	}

	// Crop to the inclusive axis-aligned bounds of the polygon.
	minX, minY, maxX, maxY := bounds(pts)
	cropRect := image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1).Intersect(img.Bounds())
	if cropRect.Empty() {
		return emptyImage()
	}
	cut := cropNRGBA(img, cropRect)

	// Translate the polygon into the crop's local frame.
	for i := range pts {
		pts[i].X -= float64(cropRect.Min.X)
		pts[i].Y -= float64(cropRect.Min.Y)
	}

	deg := angle.deg
	if angle.auto {
		deg = autoAngle(pts)
	}
	var cval color.NRGBA
	if fill.auto {
		cval = BrightestPixel(cut)
	} else {
		cval = color.NRGBAModel.Convert(fill.c).(color.NRGBA)
	}

	if deg != 0 {
		// Counter the clockwise annotation convention: a line skewed by +deg
		// needs a rotation by -deg to come out horizontal.
		w, h := cut.Rect.Dx(), cut.Rect.Dy()
		cX, cY := float64(w/2), float64(h/2)
		m := rotationAbout(cX, cY, -deg)

		// Expand the canvas to the rotated bounding box exactly.
		cos, sin := math.Abs(m.A), math.Abs(m.B)
		nW := int(math.Ceil(float64(h)*sin + float64(w)*cos))
		nH := int(math.Ceil(float64(h)*cos + float64(w)*sin))
		m.C += float64(nW)/2 - cX
		m.F += float64(nH)/2 - cY

		for i := range pts {
			p := m.apply(pts[i])
			pts[i] = Point{X: math.Round(p.X), Y: math.Round(p.Y)}
		}
		cut = rotateNRGBA(cut, m, nW, nH, cval)
	}

	if mode == ModeMBR {
		r := minAreaRect(pts)
		pts = make([]Point, 4)
		for i, c := range r.Corners {
			pts[i] = Point{X: math.Round(c.X), Y: math.Round(c.Y)}
		}
	}
	if mode == ModePolygon || mode == ModeMBR {
		applyMask(cut, pts, cval)
	}

	// Final crop to the polygon bounds in the current frame.
	minX, minY, maxX, maxY = bounds(pts)
	final := image.Rect(int(minX), int(minY), int(maxX)+1, int(maxY)+1).Intersect(cut.Rect)
	if final.Empty() {
		return emptyImage()
	}
	return cropNRGBA(cut, final)
}

// degenerate reports whether the polygon cannot enclose any area at all.
func degenerate(polygon []Point) bool {
	if len(polygon) < 3 {
		return true
	}
	for _, p := range polygon[1:] {
		if p != polygon[0] {
			return false
		}
	}
	return true
}

func emptyImage() image.Image {
	return image.NewNRGBA(image.Rectangle{})
}
