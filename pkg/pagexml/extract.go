package pagexml

import (
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// Loader extracts LineRecord values from one PAGE file at a time. A Loader is
// cheap; create one per (image, xml) pair. After a successful Load the parsed
// Document stays available for passthrough flushing.
type Loader struct {
	cfg    LoaderConfig
	logger *zap.Logger
	doc    *Document
}

// NewLoader creates a Loader with the given options.
func NewLoader(cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Document returns the document parsed by the last Load call, or nil.
func (l *Loader) Document() *Document { return l.doc }

// Load parses the PAGE file at xmlPath and returns one record per qualifying
// TextLine, in document order. When the file does not exist the result is a
// *NotFoundError, or (nil, nil) if NonExistingAsEmpty is set.
//
// In ground-truth modes each record carries a transcription resolved through
// TextEquiv selection; in prediction mode text is always absent.
func (l *Loader) Load(imagePath, xmlPath string) ([]LineRecord, error) {
	doc, err := Parse(xmlPath)
	if err != nil {
		if _, missing := err.(*NotFoundError); missing && l.cfg.NonExistingAsEmpty {
			return nil, nil
		}
		return nil, err
	}
	l.doc = doc

	if l.cfg.Mode.RequiresText() {
		return l.groundTruthRecords(doc, imagePath, xmlPath)
	}
	return l.predictionRecords(doc, imagePath, xmlPath)
}

// checkImageMatch validates that the supplied image corresponds to the image
// the page was annotated against. The comparison strips the extension chain
// from both names and requires the caller's path to end with the declared
// basename, so "scans/page1.tif" matches a declared "page1.png".
func checkImageMatch(doc *Document, imagePath string) error {
	declared, err := doc.ImageFilename()
	if err != nil {
		return err
	}
	if !strings.HasSuffix(SplitAllExt(imagePath), SplitAllExt(declared)) {
		return &ImageXMLMismatchError{ImagePath: imagePath, DeclaredImage: declared}
	}
	return nil
}

func (l *Loader) groundTruthRecords(doc *Document, imagePath, xmlPath string) ([]LineRecord, error) {
	// The pairing check only matters when the image will actually be consumed;
	// targets mode reads transcriptions alone.
	if l.cfg.Mode.supervised() {
		if err := checkImageMatch(doc, imagePath); err != nil {
			return nil, err
		}
	}
	imgWidth, err := doc.ImageWidth()
	if err != nil {
		return nil, err
	}

	var records []LineRecord
	for _, line := range doc.TextLines() {
		if l.cfg.SkipCommented && AttrDefault(line, "comments", "") != "" {
			continue
		}

		text, found, err := l.resolveText(line)
		if err != nil {
			return nil, err
		}
		if !found {
			if l.cfg.SkipInvalid {
				continue
			}
			if l.cfg.NonExistingAsEmpty {
				text = ""
			} else {
				id := AttrDefault(line, "id", "")
				return nil, &EmptyTextError{LineID: id}
			}
		}

		// Empty lines cannot be used for training or scoring.
		if l.cfg.Mode.supervised() && text == "" {
			continue
		}

		rec, err := l.lineRecord(doc, line, imagePath, xmlPath, imgWidth)
		if err != nil {
			return nil, err
		}
		rec.Text = text
		rec.HasText = true
		records = append(records, rec)
	}
	return records, nil
}

func (l *Loader) predictionRecords(doc *Document, imagePath, xmlPath string) ([]LineRecord, error) {
	if err := checkImageMatch(doc, imagePath); err != nil {
		return nil, err
	}
	imgWidth, err := doc.ImageWidth()
	if err != nil {
		return nil, err
	}

	var records []LineRecord
	for _, line := range doc.TextLines() {
		rec, err := l.lineRecord(doc, line, imagePath, xmlPath, imgWidth)
		if err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, nil
}

// lineRecord builds the mode-independent part of a record for one TextLine.
func (l *Loader) lineRecord(doc *Document, line *etree.Element, imagePath, xmlPath string, imgWidth int) (LineRecord, error) {
	id, err := Attr(line, "id")
	if err != nil {
		return LineRecord{}, err
	}

	coordsEls := childElements(line, "Coords")
	if len(coordsEls) == 0 {
		return LineRecord{}, &MissingAttributeError{Path: "TextLine/Coords/@points"}
	}
	coords, err := Attr(coordsEls[0], "points")
	if err != nil {
		return LineRecord{}, err
	}

	return LineRecord{
		PageID:      xmlPath,
		ID:          xmlPath + "/" + id,
		Coords:      coords,
		Orientation: parentOrientation(line),
		RegionType:  parentType(line),
		ImageWidth:  imgWidth,
		ImagePath:   imagePath,
		doc:         doc,
		line:        line,
	}, nil
}

// resolveText applies the TextEquiv selection policy: prefer the entry tagged
// with the configured index, fall back to the untagged one. A line carrying
// more than one candidate is a data-quality problem; the first in document
// order wins deterministically.
func (l *Loader) resolveText(line *etree.Element) (string, bool, error) {
	want := strconv.Itoa(l.cfg.TextIndex)

	var candidates []*etree.Element
	for _, teq := range childElements(line, "TextEquiv") {
		if AttrDefault(teq, "index", "") == want {
			candidates = append(candidates, teq)
		}
	}
	if len(candidates) == 0 {
		for _, teq := range childElements(line, "TextEquiv") {
			if teq.SelectAttr("index") == nil {
				candidates = append(candidates, teq)
			}
		}
	}
	if len(candidates) > 1 {
		l.logger.Warn("PAGE file is invalid: TextLine includes TextEquivs with non unique ids",
			zap.String("line", AttrDefault(line, "id", "")))
	}
	if len(candidates) == 0 {
		return "", false, nil
	}

	unicodes := childElements(candidates[0], "Unicode")
	if len(unicodes) == 0 {
		return "", false, &MissingAttributeError{Path: "TextEquiv/Unicode"}
	}
	// An empty Unicode element is an empty transcription, not a missing one.
	return unicodes[0].Text(), true, nil
}

// parentOrientation reads the clockwise skew angle from the parent region.
// Absent or unparseable values mean no skew.
func parentOrientation(line *etree.Element) float64 {
	parent := line.Parent()
	if parent == nil {
		return 0
	}
	v, err := strconv.ParseFloat(AttrDefault(parent, "orientation", ""), 64)
	if err != nil {
		return 0
	}
	return v
}

// parentType reads the region type from the parent region, "" if absent.
func parentType(line *etree.Element) string {
	parent := line.Parent()
	if parent == nil {
		return ""
	}
	return AttrDefault(parent, "type", "")
}
