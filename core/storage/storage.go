package storage

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/utils"
)

// ObjectStorage stores uploaded screenshots under generated names. The venue
// core only ever sees the returned filename reference, never the bytes.
type ObjectStorage interface {
	Save(ctx context.Context, originalName string, contentType string, body io.Reader, size int64) (string, error)
	Delete(ctx context.Context, name string) error
	URL(name string) string
}

// NewObjectStorage selects the configured driver.
func NewObjectStorage(cfg config.UploadConfig) (ObjectStorage, error) {
	switch cfg.Driver {
	case "s3":
		return newS3Storage(cfg)
	case "local", "":
		return newLocalStorage(cfg)
	default:
		return nil, fmt.Errorf("unknown upload driver %q", cfg.Driver)
	}
}

// ValidateUpload checks extension and size against the upload limits and
// returns the extension without dot.
func ValidateUpload(cfg config.UploadConfig, filename string, size int64) (string, error) {
	if size > cfg.MaxBytes {
		return "", fmt.Errorf("file exceeds maximum size of %d bytes", cfg.MaxBytes)
	}
	idx := strings.LastIndex(filename, ".")
	if idx < 0 || idx == len(filename)-1 {
		return "", fmt.Errorf("file %q has no extension", filename)
	}
	ext := strings.ToLower(filename[idx+1:])
	for _, allowed := range cfg.AllowedExtensions {
		if ext == strings.ToLower(allowed) {
			return ext, nil
		}
	}
	return "", fmt.Errorf("extension %q is not allowed", ext)
}

func generateObjectName(originalName, ext string) string {
	return utils.GenerateFileName(originalName, ext)
}

func mustExt(filename string) string {
	idx := strings.LastIndex(filename, ".")
	if idx < 0 {
		return "bin"
	}
	return strings.ToLower(filename[idx+1:])
}
