package storage

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/liyxianren/mmyq/core/config"
	"github.com/liyxianren/mmyq/core/logger"
)

// localStorage keeps uploads on the local filesystem. Used for development
// and tests; production runs the s3 driver.
type localStorage struct {
	dir string
}

func newLocalStorage(cfg config.UploadConfig) (ObjectStorage, error) {
	dir := cfg.LocalDir
	if dir == "" {
		dir = "uploads"
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("create upload dir: %w", err)
	}
	logger.Info("Storage:Local:Init", "dir", dir)
	return &localStorage{dir: dir}, nil
}

func (l *localStorage) Save(ctx context.Context, originalName string, contentType string, body io.Reader, size int64) (string, error) {
	name := generateObjectName(originalName, mustExt(originalName))
	path := filepath.Join(l.dir, name)

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_EXCL, 0o640)
	if err != nil {
		logger.Error("Storage:Local:Save:Error", "error", err, "path", path)
		return "", fmt.Errorf("create file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(f, body); err != nil {
		os.Remove(path)
		logger.Error("Storage:Local:Save:Copy:Error", "error", err, "path", path)
		return "", fmt.Errorf("write file: %w", err)
	}
	return name, nil
}

func (l *localStorage) Delete(ctx context.Context, name string) error {
	path := filepath.Join(l.dir, filepath.Base(name))
	if err := os.Remove(path); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		logger.Error("Storage:Local:Delete:Error", "error", err, "path", path)
		return err
	}
	return nil
}

func (l *localStorage) URL(name string) string {
	return "/uploads/" + name
}
