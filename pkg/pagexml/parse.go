package pagexml

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/beevik/etree"
	"golang.org/x/text/encoding/charmap"
)

// Document is a parsed PAGE file. It owns the underlying element tree, which
// is mutated in place during write-back and serialized on flush.
type Document struct {
	tree *etree.Document
	path string
}

// Parse reads a PAGE file from disk. A missing file yields a *NotFoundError
// so callers can distinguish absence from malformed content.
func Parse(path string) (*Document, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, &NotFoundError{Path: path}
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open PAGE file: %w", err)
	}
	defer f.Close()

	return ParseReader(f, path)
}

// ParseReader reads a PAGE document from r. The path is recorded as the page
// id used in composite sample ids and as the write-back destination.
func ParseReader(r io.Reader, path string) (*Document, error) {
	tree := etree.NewDocument()
	tree.ReadSettings.CharsetReader = charsetReader
	if _, err := tree.ReadFrom(r); err != nil {
		return nil, fmt.Errorf("failed to parse PAGE file %s: %w", path, err)
	}
	if tree.Root() == nil {
		return nil, fmt.Errorf("failed to parse PAGE file %s: no root element", path)
	}
	return &Document{tree: tree, path: path}, nil
}

// charsetReader decodes the legacy single-byte encodings that occasionally
// show up in PAGE exports. Everything else is expected to be UTF-8.
func charsetReader(charset string, input io.Reader) (io.Reader, error) {
	switch strings.ToLower(charset) {
	case "utf-8", "us-ascii", "ascii":
		return input, nil
	case "iso-8859-1", "latin1":
		return charmap.ISO8859_1.NewDecoder().Reader(input), nil
	case "windows-1252", "cp1252":
		return charmap.Windows1252.NewDecoder().Reader(input), nil
	}
	return nil, fmt.Errorf("unsupported charset %q", charset)
}

// Path returns the path the document was parsed from.
func (d *Document) Path() string { return d.path }

// Root returns the root element of the document tree.
func (d *Document) Root() *etree.Element { return d.tree.Root() }

// Page returns the Page element of the document.
func (d *Document) Page() (*etree.Element, error) {
	pages := findAll(d.tree.Root(), "Page")
	if len(pages) == 0 {
		return nil, &MissingAttributeError{Path: "Page"}
	}
	return pages[0], nil
}

// ImageFilename returns the image file the page declares it was annotated
// against. The attribute is required.
func (d *Document) ImageFilename() (string, error) {
	page, err := d.Page()
	if err != nil {
		return "", err
	}
	return Attr(page, "imageFilename")
}

// ImageWidth returns the declared pixel width of the page image. The value
// must parse as a positive integer; line extraction cannot compute coordinate
// scale factors without it.
func (d *Document) ImageWidth() (int, error) {
	page, err := d.Page()
	if err != nil {
		return 0, err
	}
	raw, err := Attr(page, "imageWidth")
	if err != nil {
		return 0, err
	}
	w, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("imageWidth %q is not an integer: %w", raw, err)
	}
	if w <= 0 {
		return 0, fmt.Errorf("imageWidth must be positive, got %d", w)
	}
	return w, nil
}

// TextLines returns all TextLine elements in document order.
func (d *Document) TextLines() []*etree.Element {
	return findAll(d.tree.Root(), "TextLine")
}

// WriteTo serializes the document to w.
func (d *Document) WriteTo(w io.Writer) error {
	_, err := d.tree.WriteTo(w)
	return err
}

// WriteFile serializes the document to the given path.
func (d *Document) WriteFile(path string) error {
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0666)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	if _, err := d.tree.WriteTo(f); err != nil {
		f.Close()
		return fmt.Errorf("failed to serialize PAGE document: %w", err)
	}
	return f.Close()
}
