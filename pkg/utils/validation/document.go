// pkg/utils/validation/document.go
package validation

import (
	"errors"
	"mime"
	"mime/multipart"
	"path/filepath"
	"strings"
)

var (
	ErrFileSize     = errors.New("file too large. Max size: 10MB")
	ErrFileType     = errors.New("invalid file type. Allowed: PDF, DOCX, TXT, MD, HTML")
	ErrFileRequired = errors.New("no file provided")
)

const MaxDocumentSize = 10 * 1024 * 1024 // 10MB

const (
	TypePDF      = "application/pdf"
	TypeDOCX     = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	TypeText     = "text/plain"
	TypeMarkdown = "text/markdown"
	TypeHTML     = "text/html"
)

var allowedDocumentTypes = map[string]string{
	".pdf":      TypePDF,
	".docx":     TypeDOCX,
	".txt":      TypeText,
	".md":       TypeMarkdown,
	".markdown": TypeMarkdown,
	".html":     TypeHTML,
	".htm":      TypeHTML,
}

// DocumentType resolves the canonical content type of an upload from its
// declared Content-Type, falling back to the file extension. Returns ""
// when the type is not accepted.
func DocumentType(filename, contentType string) string {
	if contentType != "" {
		if media, _, err := mime.ParseMediaType(contentType); err == nil {
			for _, allowed := range allowedDocumentTypes {
				if media == allowed {
					return allowed
				}
			}
		}
	}
	return allowedDocumentTypes[strings.ToLower(filepath.Ext(filename))]
}

// ValidateDocument checks presence, size and type and returns the resolved
// content type.
func ValidateDocument(file *multipart.FileHeader) (string, error) {
	if file == nil {
		return "", ErrFileRequired
	}

	if file.Size > MaxDocumentSize {
		return "", ErrFileSize
	}

	contentType := DocumentType(file.Filename, file.Header.Get("Content-Type"))
	if contentType == "" {
		return "", ErrFileType
	}

	return contentType, nil
}
