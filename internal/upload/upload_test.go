package upload

import (
	"bytes"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var pngBytes = append([]byte("\x89PNG\r\n\x1a\n\x00\x00\x00\rIHDR"), make([]byte, 64)...)

type part struct {
	field, name string
	body        []byte
}

func fileHeaders(t *testing.T, parts ...part) map[string][]*multipart.FileHeader {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for _, p := range parts {
		fw, err := w.CreateFormFile(p.field, p.name)
		require.NoError(t, err)
		_, err = fw.Write(p.body)
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { form.RemoveAll() })
	return form.File
}

func newTestStore(t *testing.T, max int64) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir(), max)
	require.NoError(t, err)
	return s
}

func TestDirFor(t *testing.T) {
	assert.Equal(t, DirProducts, DirFor("product_image"))
	assert.Equal(t, DirProducts, DirFor("images"))
	assert.Equal(t, DirCategories, DirFor("category_image"))
	assert.Equal(t, DirCategories, DirFor("image"))
	assert.Equal(t, DirTemp, DirFor("avatar"))
}

func TestSaveWritesSniffedImage(t *testing.T) {
	s := newTestStore(t, DefaultMaxSize)
	files := fileHeaders(t, part{"product_image", "Photo.PNG", pngBytes})

	name, err := s.Save(files["product_image"][0], "product_image")
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(name, "product_image-"))
	assert.True(t, strings.HasSuffix(name, ".png"))

	stored, err := os.ReadFile(filepath.Join(s.Root, DirProducts, name))
	require.NoError(t, err)
	assert.Equal(t, pngBytes, stored)
}

func TestSaveRejects(t *testing.T) {
	s := newTestStore(t, 32)
	files := fileHeaders(t,
		part{"a", "notes.txt", []byte("hello")},
		part{"b", "fake.png", []byte("just some text pretending")},
		part{"c", "big.png", pngBytes},
	)

	_, err := s.Save(files["a"][0], "a")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save(files["b"][0], "b")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = s.Save(files["c"][0], "c")
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(s.Root, DirTemp))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveAllLimitAndCleanup(t *testing.T) {
	s := newTestStore(t, DefaultMaxSize)

	var six []part
	for i := 0; i < MaxFiles+1; i++ {
		six = append(six, part{"images", "x.png", pngBytes})
	}
	_, err := s.SaveAll(fileHeaders(t, six...)["images"], "images")
	assert.ErrorIs(t, err, ErrTooManyFiles)

	files := fileHeaders(t,
		part{"images", "ok.png", pngBytes},
		part{"images", "bad.exe", []byte("MZ")},
	)
	_, err = s.SaveAll(files["images"], "images")
	assert.ErrorIs(t, err, ErrUnsupportedType)

	entries, err := os.ReadDir(filepath.Join(s.Root, DirProducts))
	require.NoError(t, err)
	assert.Empty(t, entries, "earlier files are removed when a later one fails")
}

func TestRemove(t *testing.T) {
	s := newTestStore(t, DefaultMaxSize)
	path := filepath.Join(s.Root, DirCategories, "c.png")
	require.NoError(t, os.WriteFile(path, pngBytes, 0o644))

	require.NoError(t, s.Remove(DirCategories, "c.png"))
	assert.NoFileExists(t, path)
	assert.NoError(t, s.Remove(DirCategories, "c.png"))
	assert.NoError(t, s.Remove(DirCategories, ""))
}
