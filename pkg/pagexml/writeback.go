package pagexml

import (
	"fmt"
	"strconv"

	"github.com/beevik/etree"
	"go.uber.org/zap"
)

// WriterConfig holds user options for writing recognized text back into PAGE
// files.
type WriterConfig struct {
	TextIndex int         // TextEquiv index the predictions are written under
	Extension string      // output suffix replacing the page's extension chain, default ".xml"
	Logger    *zap.Logger // nil disables logging
}

// Writer re-attaches predicted text to TextLine nodes and serializes each
// page exactly once. Records must arrive grouped by page: all lines of a page
// consecutively. The page being filled is flushed when the first record of
// the next page arrives, so the final page is only written by an explicit
// Flush call after the last Attach.
//
// A Writer mutates the Documents behind the records it receives and is not
// safe for concurrent use.
type Writer struct {
	cfg     WriterConfig
	logger  *zap.Logger
	pageID  string          // page currently being filled, "" initially
	doc     *Document       // document of pageID
	flushed map[string]bool // pages already written, for out-of-order detection
}

// NewWriter creates a Writer with the given options.
func NewWriter(cfg WriterConfig) *Writer {
	if cfg.Extension == "" {
		cfg.Extension = ".xml"
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Writer{cfg: cfg, logger: logger, flushed: make(map[string]bool)}
}

// Attach writes text into the TextEquiv node matching the configured index on
// the record's line, creating the TextEquiv and Unicode nodes when absent.
// Attaching the same text to the same record twice is idempotent.
//
// When the record belongs to a different page than the previous one, the
// previous page is flushed to disk first. A record for a page that was
// already flushed fails with *OutOfOrderWriteError.
func (w *Writer) Attach(text string, rec *LineRecord) error {
	if rec == nil || rec.line == nil || rec.doc == nil {
		return fmt.Errorf("record carries no write-back handle")
	}
	if w.flushed[rec.PageID] {
		return &OutOfOrderWriteError{PageID: rec.PageID}
	}

	setLineText(rec.line, w.cfg.TextIndex, text)

	if w.pageID != rec.PageID {
		if w.pageID != "" {
			if err := w.storePage(); err != nil {
				return err
			}
		}
		w.pageID = rec.PageID
		w.doc = rec.doc
	}
	return nil
}

// setLineText finds or creates TextEquiv[@index=idx]/Unicode on line and sets
// its content.
func setLineText(line *etree.Element, idx int, text string) {
	want := strconv.Itoa(idx)
	var teq *etree.Element
	for _, c := range childElements(line, "TextEquiv") {
		if AttrDefault(c, "index", "") == want {
			teq = c
			break
		}
	}
	if teq == nil {
		teq = line.CreateElement("TextEquiv")
		teq.CreateAttr("index", want)
	}

	unicodes := childElements(teq, "Unicode")
	var uni *etree.Element
	if len(unicodes) > 0 {
		uni = unicodes[0]
	} else {
		uni = teq.CreateElement("Unicode")
	}
	uni.SetText(text)
}

// Flush serializes the page currently being filled, if any, and resets the
// tracker. Callers must invoke it once after the final Attach of a run.
func (w *Writer) Flush() error {
	if w.pageID == "" {
		return nil
	}
	return w.storePage()
}

// FlushAll serializes documents that never received an Attach call, writing
// them back unmodified. Pages already written by this Writer are skipped.
func (w *Writer) FlushAll(docs []*Document) error {
	for _, doc := range docs {
		if doc == nil || w.flushed[doc.Path()] {
			continue
		}
		if err := w.store(doc, doc.Path()); err != nil {
			return err
		}
	}
	return nil
}

func (w *Writer) storePage() error {
	err := w.store(w.doc, w.pageID)
	if err == nil {
		w.flushed[w.pageID] = true
		w.pageID = ""
		w.doc = nil
	}
	return err
}

func (w *Writer) store(doc *Document, pageID string) error {
	out := SplitAllExt(pageID) + w.cfg.Extension
	if err := doc.WriteFile(out); err != nil {
		return fmt.Errorf("failed to store page %s: %w", pageID, err)
	}
	w.logger.Debug("stored page", zap.String("page", pageID), zap.String("output", out))
	return nil
}
