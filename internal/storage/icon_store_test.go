package storage

import (
	"bytes"
	"mime/multipart"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fileHeader builds a real multipart.FileHeader the way net/http parses it.
func fileHeader(t *testing.T, filename string, content []byte) *multipart.FileHeader {
	t.Helper()

	var body bytes.Buffer
	w := multipart.NewWriter(&body)
	part, err := w.CreateFormFile("icon", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/", &body)
	req.Header.Set("Content-Type", w.FormDataContentType())
	require.NoError(t, req.ParseMultipartForm(1<<20))
	t.Cleanup(func() { req.MultipartForm.RemoveAll() })

	return req.MultipartForm.File["icon"][0]
}

func newStore(t *testing.T, maxSize int64) *IconStore {
	t.Helper()
	store, err := NewIconStore(filepath.Join(t.TempDir(), "icons"), maxSize)
	require.NoError(t, err)
	return store
}

func TestNewIconStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	store, err := NewIconStore(dir, 1024)
	require.NoError(t, err)
	assert.DirExists(t, dir)
	assert.Equal(t, dir, store.Dir())

	_, err = NewIconStore("  ", 1024)
	assert.Error(t, err)
	_, err = NewIconStore(dir, 0)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	store := newStore(t, 8)

	tests := []struct {
		name     string
		filename string
		content  string
		wantErr  bool
	}{
		{"png", "logo.png", "png", false},
		{"upper case extension", "LOGO.JPEG", "jpg", false},
		{"webp", "logo.webp", "x", false},
		{"svg", "logo.svg", "<svg/>", false},
		{"not an image", "notes.txt", "hi", true},
		{"no extension", "logo", "hi", true},
		{"too large", "big.png", "123456789", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := store.Validate(fileHeader(t, tt.filename, []byte(tt.content)))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidIcon)
			} else {
				assert.NoError(t, err)
			}
		})
	}

	assert.NoError(t, store.Validate(nil))
}

func TestSave(t *testing.T) {
	store := newStore(t, 1024)
	store.now = func() time.Time { return time.UnixMilli(1733011201000) }

	name, err := store.Save(fileHeader(t, "Logo.PNG", []byte("fake png")))
	require.NoError(t, err)

	assert.Regexp(t, regexp.MustCompile(`^icon-1733011201000-[0-9a-f]{8}\.PNG$`), name)
	data, err := os.ReadFile(filepath.Join(store.Dir(), name))
	require.NoError(t, err)
	assert.Equal(t, "fake png", string(data))
}

func TestSave_Rejected(t *testing.T) {
	store := newStore(t, 4)

	_, err := store.Save(fileHeader(t, "big.gif", []byte(strings.Repeat("x", 10))))
	assert.ErrorIs(t, err, ErrInvalidIcon)

	_, err = store.Save(nil)
	assert.ErrorIs(t, err, ErrInvalidIcon)

	entries, err := os.ReadDir(store.Dir())
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not leave files behind")
}

func TestSave_UniqueNames(t *testing.T) {
	store := newStore(t, 1024)
	store.now = func() time.Time { return time.UnixMilli(42) }

	a, err := store.Save(fileHeader(t, "a.png", []byte("a")))
	require.NoError(t, err)
	b, err := store.Save(fileHeader(t, "b.png", []byte("b")))
	require.NoError(t, err)
	assert.NotEqual(t, a, b)
}

func TestRemove(t *testing.T) {
	store := newStore(t, 1024)
	name, err := store.Save(fileHeader(t, "a.png", []byte("a")))
	require.NoError(t, err)

	require.NoError(t, store.Remove(name))
	assert.NoFileExists(t, filepath.Join(store.Dir(), name))

	assert.NoError(t, store.Remove(name), "missing file is not an error")
	assert.NoError(t, store.Remove(""))
}

func TestRemove_StaysInsideDir(t *testing.T) {
	store := newStore(t, 1024)
	outside := filepath.Join(filepath.Dir(store.Dir()), "keep.png")
	require.NoError(t, os.WriteFile(outside, []byte("keep"), 0o644))

	require.NoError(t, store.Remove("../keep.png"))
	assert.FileExists(t, outside)
}
