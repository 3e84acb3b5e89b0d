// Package storage keeps uploaded payment slips. The engine only ever sees
// the reference returned by Store.
package storage

import (
	"errors"
	"fmt"
	"path"
	"strings"

	"savoria/domain/directory"
)

var (
	ErrEmptyFile          = fmt.Errorf("storage: file is empty: %w", directory.ErrUploadRejected)
	ErrFileTooLarge       = fmt.Errorf("storage: file exceeds the upload limit: %w", directory.ErrUploadRejected)
	ErrContentTypeDenied  = fmt.Errorf("storage: content type not allowed: %w", directory.ErrUploadRejected)
	errInvalidKey         = errors.New("storage: invalid object key")
	defaultAllowedContent = []string{"image/jpeg", "image/png", "image/webp", "application/pdf"}
)

// Limits applies to every store.
type Limits struct {
	MaxBytes            int64
	AllowedContentTypes []string
}

func (l Limits) check(key string, file directory.Upload) error {
	if strings.TrimSpace(key) == "" || strings.Contains(key, "..") {
		return errInvalidKey
	}
	if file.Body == nil || file.Size == 0 {
		return ErrEmptyFile
	}
	if l.MaxBytes > 0 && file.Size > l.MaxBytes {
		return fmt.Errorf("%w: %d > %d bytes", ErrFileTooLarge, file.Size, l.MaxBytes)
	}
	allowed := l.AllowedContentTypes
	if len(allowed) == 0 {
		allowed = defaultAllowedContent
	}
	ct := strings.ToLower(strings.TrimSpace(strings.SplitN(file.ContentType, ";", 2)[0]))
	for _, a := range allowed {
		if ct == a {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", ErrContentTypeDenied, file.ContentType)
}

// objectName keeps the original extension so browsers can render the slip.
func objectName(key, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return strings.TrimPrefix(key, "/") + ext
}

func joinURL(base, name string) string {
	if base == "" {
		return name
	}
	return strings.TrimRight(base, "/") + "/" + name
}
