package services

import (
	"bytes"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStorage(t *testing.T) *LocalFileStorage {
	t.Helper()
	storage, err := NewLocalFileStorage(t.TempDir())
	require.NoError(t, err)
	return storage
}

func TestStageAndRelocate(t *testing.T) {
	storage := newTestStorage(t)

	staged, err := storage.Stage(strings.NewReader("fake image bytes"), "logo.PNG")
	require.NoError(t, err)
	assert.FileExists(t, staged)
	assert.Equal(t, ".png", filepath.Ext(staged))

	url, err := storage.Relocate(staged, "Doces & Bolos", "Doceria da Ana")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "uploads/doces___bolos/doceria_da_ana/"), url)
	assert.NoFileExists(t, staged)

	full := filepath.Join(storage.root, filepath.FromSlash(url))
	data, err := os.ReadFile(full)
	require.NoError(t, err)
	assert.Equal(t, "fake image bytes", string(data))
}

func TestDeleteFile(t *testing.T) {
	storage := newTestStorage(t)

	staged, err := storage.Stage(strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)
	url, err := storage.Relocate(staged, "cat", "name")
	require.NoError(t, err)

	require.NoError(t, storage.DeleteFile(url))
	assert.NoFileExists(t, filepath.Join(storage.root, filepath.FromSlash(url)))

	// Deleting an already-missing file succeeds
	assert.NoError(t, storage.DeleteFile(url))
}

func TestDeleteFileRejectsEscapes(t *testing.T) {
	storage := newTestStorage(t)

	assert.Error(t, storage.DeleteFile("../etc/passwd"))
	assert.Error(t, storage.DeleteFile("/etc/passwd"))
	assert.Error(t, storage.DeleteFile("staging/abc.jpg"))
	assert.Error(t, storage.DeleteFile("uploads/../../../x"))
}

func TestDeleteTree(t *testing.T) {
	storage := newTestStorage(t)

	staged, err := storage.Stage(strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)
	_, err = storage.Relocate(staged, "Alimentação", "Doceria da Ana")
	require.NoError(t, err)

	require.NoError(t, storage.DeleteTree("Alimentação", "Doceria da Ana"))
	assert.NoDirExists(t, filepath.Join(storage.root, "uploads", "alimenta__o", "doceria_da_ana"))

	// A missing tree is not an error
	assert.NoError(t, storage.DeleteTree("Alimentação", "Doceria da Ana"))
}

func TestDiscardStaged(t *testing.T) {
	storage := newTestStorage(t)

	staged, err := storage.Stage(strings.NewReader("x"), "a.jpg")
	require.NoError(t, err)

	storage.DiscardStaged(staged)
	assert.NoFileExists(t, staged)

	storage.DiscardStaged("")
}

func TestValidateImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 4))))
	assert.NoError(t, ValidateImage(&buf))

	assert.Error(t, ValidateImage(strings.NewReader("definitely not an image")))
}
