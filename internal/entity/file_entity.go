package entity

import "strings"

type FileKind string

const (
	FileKindImage FileKind = "image"
	FileKindPDF   FileKind = "pdf"
)

// SelectedFile is the single active upload candidate. Exactly one file
// may be active per user at a time; selecting a new one replaces it.
type SelectedFile struct {
	Name     string
	Size     int64
	MimeType string
	Data     []byte
}

func (f *SelectedFile) Kind() FileKind {
	if strings.HasPrefix(f.MimeType, "image/") {
		return FileKindImage
	}
	return FileKindPDF
}
