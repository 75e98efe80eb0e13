package pagexml

import "fmt"

// NotFoundError indicates that a referenced PAGE file does not exist.
// Callers that configure NonExistingAsEmpty never see this error.
type NotFoundError struct {
	Path string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("file %q does not exist", e.Path)
}

// MissingAttributeError indicates that a required attribute or element was
// absent and no default was supplied by the caller.
type MissingAttributeError struct {
	Path string // element-relative path of the missing node, e.g. "TextLine/@id"
}

func (e *MissingAttributeError) Error() string {
	return fmt.Sprintf("required node %q not found", e.Path)
}

// ImageXMLMismatchError indicates that the image passed alongside a PAGE file
// does not correspond to the imageFilename the page declares.
type ImageXMLMismatchError struct {
	ImagePath     string // image path supplied by the caller
	DeclaredImage string // imageFilename attribute of the Page element
}

func (e *ImageXMLMismatchError) Error() string {
	return fmt.Sprintf("mapping of image file to xml file invalid: %s vs %s (comparing basename %s vs %s)",
		e.ImagePath, e.DeclaredImage, SplitAllExt(e.ImagePath), SplitAllExt(e.DeclaredImage))
}

// EmptyTextError indicates that a line has no resolvable transcription in a
// ground-truth mode and neither SkipInvalid nor NonExistingAsEmpty is set.
type EmptyTextError struct {
	LineID string
}

func (e *EmptyTextError) Error() string {
	return fmt.Sprintf("empty text field for line %q", e.LineID)
}

// OutOfOrderWriteError indicates an Attach call for a page that was already
// flushed. Attach calls must arrive grouped by page; this error surfaces the
// violation instead of silently corrupting output.
type OutOfOrderWriteError struct {
	PageID string
}

func (e *OutOfOrderWriteError) Error() string {
	return fmt.Sprintf("page %q was already flushed; attach calls must be grouped by page", e.PageID)
}
