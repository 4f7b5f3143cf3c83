// Package attachments validates and stores files attached to invoices.
package attachments

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"
)

const (
	MaxFiles    = 5
	MaxFileSize = 10 * 1024 * 1024
)

var (
	ErrTooManyFiles    = fmt.Errorf("maximum %d files allowed", MaxFiles)
	ErrFileTooLarge    = fmt.Errorf("file exceeds %dMB limit", MaxFileSize/(1024*1024))
	ErrUnsupportedType = errors.New("unsupported file type")
	ErrEmptyFile       = errors.New("file is empty")
	ErrNotFound        = errors.New("attachment not found")
)

var allowedExtensions = map[string]string{
	".pdf":  "application/pdf",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// Storage keeps attachment bodies. Put returns the URL recorded on the invoice.
type Storage interface {
	Put(ctx context.Context, key string, body []byte, contentType string) (url string, err error)
	Get(ctx context.Context, key string) (body []byte, contentType string, err error)
	Delete(ctx context.Context, key string) error
}

// Upload is a file received from a client.
type Upload struct {
	FileName    string
	ContentType string
	Data        []byte
}

// Allowed reports whether the file is an image, PDF, Word or Excel document.
// Either the content type or the extension may qualify it.
func Allowed(fileName, contentType string) bool {
	ct := strings.ToLower(strings.TrimSpace(contentType))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if strings.HasPrefix(ct, "image/") {
		return true
	}
	for _, known := range allowedExtensions {
		if ct == known {
			return true
		}
	}
	_, ok := allowedExtensions[strings.ToLower(path.Ext(fileName))]
	return ok
}

// Validate checks a new upload against the per-invoice limits. existing is
// the number of attachments the invoice already has.
func Validate(fileName string, size int64, contentType string, existing int) error {
	if existing+1 > MaxFiles {
		return ErrTooManyFiles
	}
	if size <= 0 {
		return ErrEmptyFile
	}
	if size > MaxFileSize {
		return fmt.Errorf("file %q: %w", fileName, ErrFileTooLarge)
	}
	if !Allowed(fileName, contentType) {
		return fmt.Errorf("file %q (%s): %w", fileName, contentType, ErrUnsupportedType)
	}
	return nil
}

// ContentType returns the declared type, or one inferred from the extension.
func ContentType(fileName, declared string) string {
	if declared != "" && declared != "application/octet-stream" {
		return declared
	}
	if ct, ok := allowedExtensions[strings.ToLower(path.Ext(fileName))]; ok {
		return ct
	}
	if declared != "" {
		return declared
	}
	return "application/octet-stream"
}

// Key builds the storage key for an attachment.
func Key(invoiceID, attachmentID, fileName string) string {
	return path.Join("invoices", invoiceID, attachmentID+"-"+path.Base(sanitize(fileName)))
}

func sanitize(name string) string {
	name = strings.ReplaceAll(name, "\\", "/")
	name = path.Base(name)
	if name == "." || name == "/" || name == "" {
		return "file"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r < 0x20, r == '?', r == '#', r == '%':
			return '_'
		}
		return r
	}, name)
}
