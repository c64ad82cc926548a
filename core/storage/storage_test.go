package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liyxianren/mmyq/core/config"
)

func uploadConfig(dir string) config.UploadConfig {
	return config.UploadConfig{
		Driver:            "local",
		LocalDir:          dir,
		MaxBytes:          1 << 20,
		AllowedExtensions: []string{"png", "jpg", "jpeg"},
	}
}

func TestValidateUpload(t *testing.T) {
	cfg := uploadConfig(t.TempDir())

	ext, err := ValidateUpload(cfg, "screenshot.PNG", 1024)
	require.NoError(t, err)
	assert.Equal(t, "png", ext)

	_, err = ValidateUpload(cfg, "notes.txt", 1024)
	assert.Error(t, err)

	_, err = ValidateUpload(cfg, "noextension", 1024)
	assert.Error(t, err)

	_, err = ValidateUpload(cfg, "big.png", cfg.MaxBytes+1)
	assert.Error(t, err)
}

func TestLocalStorageSaveAndDelete(t *testing.T) {
	dir := t.TempDir()
	store, err := NewObjectStorage(uploadConfig(dir))
	require.NoError(t, err)

	ctx := context.Background()
	name, err := store.Save(ctx, "My Screenshot.png", "image/png", strings.NewReader("fake-png-bytes"), 14)
	require.NoError(t, err)

	assert.True(t, strings.HasSuffix(name, ".png"))
	assert.Contains(t, name, "my-screenshot")

	data, err := os.ReadFile(filepath.Join(dir, name))
	require.NoError(t, err)
	assert.Equal(t, "fake-png-bytes", string(data))

	assert.Equal(t, "/uploads/"+name, store.URL(name))

	require.NoError(t, store.Delete(ctx, name))
	_, err = os.Stat(filepath.Join(dir, name))
	assert.True(t, os.IsNotExist(err))

	// deleting a missing file is not an error
	assert.NoError(t, store.Delete(ctx, name))
}

func TestLocalStorageNamesAreUnique(t *testing.T) {
	store, err := NewObjectStorage(uploadConfig(t.TempDir()))
	require.NoError(t, err)

	ctx := context.Background()
	a, err := store.Save(ctx, "same.png", "image/png", strings.NewReader("a"), 1)
	require.NoError(t, err)
	b, err := store.Save(ctx, "same.png", "image/png", strings.NewReader("b"), 1)
	require.NoError(t, err)

	assert.NotEqual(t, a, b)
}

func TestNewObjectStorageUnknownDriver(t *testing.T) {
	_, err := NewObjectStorage(config.UploadConfig{Driver: "ftp"})
	assert.Error(t, err)
}
