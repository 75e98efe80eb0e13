// Package dataset pairs page images with their PAGE files and assembles
// per-line training and inference samples from them.
//
// A Dataset validates all pages up front, keeps the parsed documents around
// so prediction runs can flush untouched pages through unchanged, and
// produces samples one page file at a time. Image decoding is pluggable;
// the default handles PNG and JPEG.
package dataset

import (
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"

	"github.com/gardar/pagecut/pkg/pagexml"
)

// Pair is one unit of input: a page image path and its PAGE file path.
// Either may be empty: text-only runs carry no image, and a missing PAGE
// file is tolerated when the loader is configured with NonExistingAsEmpty.
type Pair struct {
	Image string
	XML   string
}

// DecodeFunc loads and decodes a page image from disk.
type DecodeFunc func(path string) (image.Image, error)

// DefaultDecode reads an image with the stdlib decoders (PNG, JPEG).
func DefaultDecode(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open image: %w", err)
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("failed to decode image %s: %w", path, err)
	}
	return img, nil
}

// Dataset owns the (image, PAGE file) pairs of one run and the line records
// extracted from them.
type Dataset struct {
	loaderCfg pagexml.LoaderConfig
	asm       *Assembler
	pairs     []Pair
	records   [][]pagexml.LineRecord
	docs      []*pagexml.Document
	decode    DecodeFunc
}

// NewDataset pairs images with PAGE files and validates every page by
// extracting its line records. When xmls is empty, paths are derived from
// the images by replacing the extension chain with ".xml". When images is
// empty, the pairs are image-less (text-only use).
func NewDataset(loaderCfg pagexml.LoaderConfig, asmCfg AssemblerConfig, images, xmls []string) (*Dataset, error) {
	if len(xmls) == 0 {
		for _, img := range images {
			xmls = append(xmls, pagexml.SplitAllExt(img)+".xml")
		}
	}
	if len(images) == 0 {
		images = make([]string, len(xmls))
	}
	if len(images) != len(xmls) {
		return nil, fmt.Errorf("got %d images but %d xml files", len(images), len(xmls))
	}

	d := &Dataset{
		loaderCfg: loaderCfg,
		asm:       NewAssembler(asmCfg),
		decode:    DefaultDecode,
	}
	for i := range xmls {
		loader := pagexml.NewLoader(loaderCfg)
		recs, err := loader.Load(images[i], xmls[i])
		if err != nil {
			return nil, err
		}
		d.pairs = append(d.pairs, Pair{Image: images[i], XML: xmls[i]})
		d.records = append(d.records, recs)
		d.docs = append(d.docs, loader.Document())
	}
	return d, nil
}

// SetDecoder replaces the image decoder, for formats beyond PNG/JPEG or for
// pre-binarized caches.
func (d *Dataset) SetDecoder(fn DecodeFunc) { d.decode = fn }

// Len returns the number of page files in the dataset.
func (d *Dataset) Len() int { return len(d.pairs) }

// Pairs returns the (image, xml) pairs in run order.
func (d *Dataset) Pairs() []Pair { return d.pairs }

// Records returns the line records of page file i. The slice elements are
// shared with the dataset, so their write-back handles stay valid.
func (d *Dataset) Records(i int) []pagexml.LineRecord { return d.records[i] }

// Documents returns the parsed documents in run order, nil where a missing
// file was tolerated. Pass them to Writer.FlushAll to copy pages through
// that never received a prediction.
func (d *Dataset) Documents() []*pagexml.Document { return d.docs }

// Samples assembles the samples of page file i, decoding its image when the
// mode consumes one.
func (d *Dataset) Samples(i int) ([]Sample, error) {
	var pageImg image.Image
	pair := d.pairs[i]
	if d.loaderCfg.Mode.RequiresImage() && !d.asm.cfg.TextOnly && pair.Image != "" && len(d.records[i]) > 0 {
		img, err := d.decode(pair.Image)
		if err != nil {
			return nil, err
		}
		pageImg = img
	}
	return d.asm.Assemble(pageImg, d.records[i], i)
}
