package archive

import (
	"fmt"
	"path/filepath"
	"strings"
)

// invalidFileNameChars are the characters no supported local filesystem accepts
// in a file name. Control characters are rejected separately.
const invalidFileNameChars = `<>:"/\|?*`

// ValidateFileName checks that name can be used as a single local file name.
func ValidateFileName(name string) error {
	if name == "" || name == "." || name == ".." {
		return fmt.Errorf("%w: %q", ErrInvalidFileName, name)
	}
	if i := strings.IndexAny(name, invalidFileNameChars); i >= 0 {
		return fmt.Errorf("%w: %q contains %q", ErrInvalidFileName, name, name[i])
	}
	for _, r := range name {
		if r < 0x20 || r == 0x7f {
			return fmt.Errorf("%w: %q contains a control character", ErrInvalidFileName, name)
		}
	}
	return nil
}

// PreviewKind tells the presentation layer which viewer a document needs.
type PreviewKind string

const (
	PreviewPDF         PreviewKind = "PDF"
	PreviewImage       PreviewKind = "IMAGE"
	PreviewTIFF        PreviewKind = "TIFF"
	PreviewText        PreviewKind = "TEXT"
	PreviewWord        PreviewKind = "WORD"
	PreviewUnsupported PreviewKind = "UNSUPPORTED"
)

// PreviewKindFor classifies a file name by its extension.
func PreviewKindFor(fileName string) PreviewKind {
	switch strings.ToUpper(filepath.Ext(fileName)) {
	case ".PDF":
		return PreviewPDF
	case ".JPG", ".JPEG":
		return PreviewImage
	case ".TIF", ".TIFF":
		return PreviewTIFF
	case ".TXT":
		return PreviewText
	case ".DOC", ".DOCX":
		return PreviewWord
	default:
		return PreviewUnsupported
	}
}
