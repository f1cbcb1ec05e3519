// Package document turns clinical document files into document records
// attached to a canonical patient.
package document

import (
	"path/filepath"
	"regexp"
	"strings"

	"github.com/clinicaldwh/drwh/internal/types"
)

// Kind is the file type of a document.
type Kind string

const (
	KindPDF  Kind = "pdf"
	KindDOCX Kind = "docx"
)

// Origin returns the source system that produces documents of this kind.
func (k Kind) Origin() types.Origin {
	if k == KindDOCX {
		return types.OriginRadiology
	}
	return types.OriginPatientRecord
}

var filenamePattern = regexp.MustCompile(`^(\d*)_(\d*)\.(pdf|docx)`)

// FileInfo is what a document file name tells about its content.
type FileInfo struct {
	Kind        Kind
	ExternalID  string // hospital patient identifier, as written
	DocumentNum string
}

// ParseFilename parses <external id>_<document id>.<pdf|docx>.
func ParseFilename(name string) (FileInfo, error) {
	m := filenamePattern.FindStringSubmatch(name)
	if m == nil {
		return FileInfo{}, &types.FilenameParseError{Name: name}
	}
	return FileInfo{
		Kind:        Kind(m[3]),
		ExternalID:  m[1],
		DocumentNum: m[2],
	}, nil
}

// NormalizeExternalID applies the identifier convention of the origin.
// The radiology software zero-pads hospital identifiers; the patient record
// system writes them as stored.
func NormalizeExternalID(origin types.Origin, id string) string {
	if origin == types.OriginRadiology {
		return strings.TrimLeft(id, "0")
	}
	return id
}

// skipFile reports whether a directory entry is not a document at all:
// hidden files and the spreadsheet export that usually sits next to the
// documents.
func skipFile(name string) bool {
	if strings.HasPrefix(name, ".") {
		return true
	}
	return strings.EqualFold(filepath.Ext(name), ".xlsx")
}
