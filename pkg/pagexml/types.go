package pagexml

import (
	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// LoadMode selects what a load pass is for, which in turn decides whether
// transcriptions are required and whether the page image is consumed.
type LoadMode int

const (
	// ModeTraining loads image and transcription; lines with empty text are
	// skipped since they cannot be optimized against.
	ModeTraining LoadMode = iota
	// ModeEvaluation behaves like ModeTraining but for scoring.
	ModeEvaluation
	// ModePrediction loads lines without transcriptions.
	ModePrediction
	// ModeTargets loads transcriptions only; no image is involved.
	ModeTargets
)

// RequiresText reports whether the mode resolves ground-truth transcriptions.
func (m LoadMode) RequiresText() bool {
	return m == ModeTraining || m == ModeEvaluation || m == ModeTargets
}

// RequiresImage reports whether the mode consumes the page image.
func (m LoadMode) RequiresImage() bool {
	return m == ModeTraining || m == ModeEvaluation || m == ModePrediction
}

// supervised reports whether records feed supervised training or scoring, in
// which case empty transcriptions are skipped and the image/XML pairing is
// verified.
func (m LoadMode) supervised() bool {
	return m == ModeTraining || m == ModeEvaluation
}

// String returns the mode name used in CLI flags and logs.
func (m LoadMode) String() string {
	switch m {
	case ModeTraining:
		return "training"
	case ModeEvaluation:
		return "evaluation"
	case ModePrediction:
		return "prediction"
	case ModeTargets:
		return "targets"
	}
	return "unknown"
}

// LoaderConfig holds user options for line extraction.
type LoaderConfig struct {
	Mode               LoadMode    // what the extracted records are for
	TextIndex          int         // TextEquiv index holding the wanted transcription
	SkipInvalid        bool        // drop lines with no resolvable text instead of failing
	NonExistingAsEmpty bool        // treat missing files and missing text as empty
	SkipCommented      bool        // exclude lines carrying a non-empty comments attribute
	Logger             *zap.Logger // data-quality warnings; nil disables logging
}

// DefaultLoaderConfig returns a config with sensible defaults: prediction
// mode, TextEquiv index 0, commented lines excluded.
func DefaultLoaderConfig() LoaderConfig {
	return LoaderConfig{
		Mode:          ModePrediction,
		TextIndex:     0,
		SkipCommented: true,
	}
}

// LineRecord is a flattened snapshot of one TextLine plus the page-level
// context needed downstream. Records are transient: they are produced per
// load and never persisted. The element handles tie a record back to its
// node for in-place write-back.
type LineRecord struct {
	PageID      string  // path of the PAGE file this line came from
	ID          string  // composite id "{page_id}/{line_id}"
	Coords      string  // polygon as whitespace-separated "x,y" tokens
	Orientation float64 // clockwise skew of the parent region in degrees
	RegionType  string  // type attribute of the parent region, "" if absent
	Text        string  // resolved transcription; meaningful only when HasText
	HasText     bool    // false in prediction mode
	ImageWidth  int     // declared pixel width of the page image
	ImagePath   string  // image path supplied alongside the PAGE file

	doc  *Document      // owning document, for write-back
	line *etree.Element // the TextLine node, for write-back
}

// Line returns the underlying TextLine element.
func (r *LineRecord) Line() *etree.Element { return r.line }

// Document returns the document the record was extracted from.
func (r *LineRecord) Document() *Document { return r.doc }
