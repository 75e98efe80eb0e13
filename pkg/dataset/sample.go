package dataset

import (
	"fmt"
	"image"
	"math"

	"golang.org/x/image/draw"

	"github.com/gardar/pagecut/pkg/linecut"
	"github.com/gardar/pagecut/pkg/pagexml"
)

// Meta carries the identity of a sample: the composite "{page_id}/{line_id}"
// id and the cross-validation fold the sample belongs to. FoldID is -1 when
// folding is disabled.
type Meta struct {
	ID     string
	FoldID int
}

// Sample is one training or inference unit: the extracted line image (nil in
// text-only runs), the transcription (absent in prediction mode), and
// identity metadata.
type Sample struct {
	Image   image.Image
	Text    string
	HasText bool
	Meta    Meta
}

// AssemblerConfig holds user options for turning line records into samples.
type AssemblerConfig struct {
	NFolds   int  // number of cross-validation folds; 0 disables folding
	Pad      int  // uniform border around each line image, 0 disables
	TextOnly bool // skip image extraction entirely
}

// Assembler combines line records with cutouts from the page image.
type Assembler struct {
	cfg AssemblerConfig
}

// NewAssembler creates an Assembler with the given options.
func NewAssembler(cfg AssemblerConfig) *Assembler {
	return &Assembler{cfg: cfg}
}

// Assemble produces one sample per record. The fileIndex is the position of
// the page file in the overall run; fold assignment is
// (fileIndex + lineIndex) mod NFolds, stable across repeated runs over the
// same data.
//
// When pageImg is non-nil and the run is not text-only, each sample gets a
// polygon cutout. The polygon scale is derived from the ratio of the loaded
// image width to the width the page declares, absorbing annotation/image
// resolution mismatches. A zero-size cutout is passed through, flagging
// "no usable sample" to the caller.
func (a *Assembler) Assemble(pageImg image.Image, records []pagexml.LineRecord, fileIndex int) ([]Sample, error) {
	samples := make([]Sample, 0, len(records))
	for i, rec := range records {
		foldID := -1
		if a.cfg.NFolds > 0 {
			foldID = (fileIndex + i) % a.cfg.NFolds
		}

		var lineImg image.Image
		if !a.cfg.TextOnly && pageImg != nil {
			pts, err := linecut.ParsePoints(rec.Coords)
			if err != nil {
				return nil, fmt.Errorf("line %s: %w", rec.ID, err)
			}

			// A full turn is no skew at all.
			angle := 0.0
			if rec.Orientation != 0 && math.Mod(rec.Orientation, 360) != 0 {
				angle = rec.Orientation
			}

			scale := float64(pageImg.Bounds().Dx()) / float64(rec.ImageWidth)
			lineImg = linecut.Cutout(pageImg, pts, linecut.ModePolygon,
				linecut.Deg(angle), linecut.AutoFill(), scale)
			if a.cfg.Pad > 0 {
				lineImg = PadImage(lineImg, a.cfg.Pad)
			}
		}

		samples = append(samples, Sample{
			Image:   lineImg,
			Text:    rec.Text,
			HasText: rec.HasText,
			Meta:    Meta{ID: rec.ID, FoldID: foldID},
		})
	}
	return samples, nil
}

// PadImage surrounds img with a uniform border of pad pixels filled with the
// image's brightest value, matching the background padding applied to line
// images from plain file datasets. Zero-size images are returned unchanged.
func PadImage(img image.Image, pad int) image.Image {
	b := img.Bounds()
	if b.Empty() || pad <= 0 {
		return img
	}
	border := linecut.BrightestPixel(img)
	dst := image.NewNRGBA(image.Rect(0, 0, b.Dx()+2*pad, b.Dy()+2*pad))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(border), image.Point{}, draw.Src)
	draw.Draw(dst, image.Rect(pad, pad, pad+b.Dx(), pad+b.Dy()), img, b.Min, draw.Src)
	return dst
}
