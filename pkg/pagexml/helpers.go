package pagexml

import (
	"path/filepath"
	"strings"

	"github.com/beevik/etree"
)

// SplitAllExt strips the full extension chain from the final path component,
// so "scans/page1.nrm.png" becomes "scans/page1". PAGE conventions allow
// multi-part extensions on derived images, which is why a plain filepath.Ext
// is not enough.
func SplitAllExt(path string) string {
	dir, base := filepath.Split(path)
	if i := strings.Index(base, "."); i > 0 {
		base = base[:i]
	}
	return dir + base
}

// Filename returns the final path component without any extension.
func Filename(path string) string {
	return filepath.Base(SplitAllExt(path))
}

// findAll returns all descendants of el whose local name matches tag, in
// document order. Matching ignores namespace prefixes: PAGE documents carry a
// single default namespace, so the local name is unambiguous whether or not
// the file uses a prefix.
func findAll(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	var walk func(*etree.Element)
	walk = func(e *etree.Element) {
		for _, c := range e.ChildElements() {
			if c.Tag == tag {
				out = append(out, c)
			}
			walk(c)
		}
	}
	walk(el)
	return out
}

// childElements returns the direct children of el with the given local name.
func childElements(el *etree.Element, tag string) []*etree.Element {
	var out []*etree.Element
	for _, c := range el.ChildElements() {
		if c.Tag == tag {
			out = append(out, c)
		}
	}
	return out
}

// Attr returns the value of the named attribute on el, or a
// *MissingAttributeError when the attribute is absent.
func Attr(el *etree.Element, name string) (string, error) {
	if a := el.SelectAttr(name); a != nil {
		return a.Value, nil
	}
	return "", &MissingAttributeError{Path: el.Tag + "/@" + name}
}

// AttrDefault returns the value of the named attribute on el, or def when the
// attribute is absent.
func AttrDefault(el *etree.Element, name, def string) string {
	if a := el.SelectAttr(name); a != nil {
		return a.Value
	}
	return def
}
