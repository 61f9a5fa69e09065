package archive

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFiles(t *testing.T, dir string, files map[string]string) {
	t.Helper()
	for name, content := range files {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	}
}

func readArchive(t *testing.T, zipPath string) map[string]string {
	t.Helper()
	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()

	contents := make(map[string]string)
	for _, f := range r.File {
		rc, err := f.Open()
		require.NoError(t, err)
		data, err := io.ReadAll(rc)
		rc.Close()
		require.NoError(t, err)
		contents[f.Name] = string(data)
	}
	return contents
}

func TestCompressCreatesArchive(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, ".cache")
	writeFiles(t, src, map[string]string{
		"a.jpg":        "aaaa",
		"b.png":        "bbbb",
		"nested/c.jpg": "cccc",
	})
	zipPath := filepath.Join(root, "pics.zip")

	result, err := Compress(src, zipPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 3, result.Added)
	assert.Equal(t, 0, result.Kept)
	assert.EqualValues(t, 12, result.Bytes)

	want := map[string]string{"a.jpg": "aaaa", "b.png": "bbbb", "c.jpg": "cccc"}
	if diff := cmp.Diff(want, readArchive(t, zipPath)); diff != "" {
		t.Errorf("archive contents mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressAppendsToExisting(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "pics.zip")

	first := filepath.Join(root, "first")
	writeFiles(t, first, map[string]string{"a.jpg": "old-a", "b.jpg": "old-b"})
	_, err := Compress(first, zipPath, Options{})
	require.NoError(t, err)

	second := filepath.Join(root, "second")
	writeFiles(t, second, map[string]string{"b.jpg": "new-b", "c.jpg": "new-c"})
	result, err := Compress(second, zipPath, Options{})
	require.NoError(t, err)

	assert.Equal(t, 2, result.Added)
	assert.Equal(t, 1, result.Replaced)
	assert.Equal(t, 1, result.Kept)

	want := map[string]string{"a.jpg": "old-a", "b.jpg": "new-b", "c.jpg": "new-c"}
	if diff := cmp.Diff(want, readArchive(t, zipPath)); diff != "" {
		t.Errorf("archive contents mismatch (-want +got):\n%s", diff)
	}

	r, err := zip.OpenReader(zipPath)
	require.NoError(t, err)
	defer r.Close()
	assert.Len(t, r.File, 3, "replaced entries must not be duplicated")
}

func TestCompressSkipsPartialDownloads(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, ".cache")
	writeFiles(t, src, map[string]string{
		"a.png":      "aaaa",
		"b.png.part": "half",
	})
	zipPath := filepath.Join(root, "pics.zip")

	result, err := Compress(src, zipPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 1, result.Added)

	entries, err := Entries(zipPath)
	require.NoError(t, err)
	if diff := cmp.Diff(map[string]struct{}{"a.png": {}}, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}

func TestCompressArchiveMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFiles(t, src, map[string]string{"a.jpg": "aaaa"})
	zipPath := filepath.Join(root, "pics.zip")

	_, err := Compress(src, zipPath, Options{})
	require.NoError(t, err)
	info, err := os.Stat(zipPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0644), info.Mode().Perm())

	// an existing archive keeps its own mode
	require.NoError(t, os.Chmod(zipPath, 0640))
	_, err = Compress(src, zipPath, Options{})
	require.NoError(t, err)
	info, err = os.Stat(zipPath)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0640), info.Mode().Perm())
}

func TestCompressEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "empty")
	require.NoError(t, os.Mkdir(src, 0755))
	zipPath := filepath.Join(root, "empty.zip")

	result, err := Compress(src, zipPath, Options{})
	require.NoError(t, err)
	assert.Equal(t, 0, result.Added)

	entries, err := Entries(zipPath)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestCompressMissingSource(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "out.zip")

	_, err := Compress(filepath.Join(root, "nope"), zipPath, Options{})
	require.Error(t, err)
	assert.NoFileExists(t, zipPath)
}

func TestCompressRejectsCorruptArchive(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFiles(t, src, map[string]string{"a.jpg": "a"})
	zipPath := filepath.Join(root, "bad.zip")
	require.NoError(t, os.WriteFile(zipPath, []byte("not a zip"), 0644))

	_, err := Compress(src, zipPath, Options{})
	require.Error(t, err)

	data, err := os.ReadFile(zipPath)
	require.NoError(t, err)
	assert.Equal(t, "not a zip", string(data), "a failed run must leave the archive untouched")

	matches, err := filepath.Glob(filepath.Join(root, ".riddle-*.zip"))
	require.NoError(t, err)
	assert.Empty(t, matches)
}

func TestCompressProgress(t *testing.T) {
	root := t.TempDir()
	src := filepath.Join(root, "src")
	writeFiles(t, src, map[string]string{"a.jpg": strings.Repeat("a", 2048)})

	var progress bytes.Buffer
	_, err := Compress(src, filepath.Join(root, "out.zip"), Options{Progress: &progress})
	require.NoError(t, err)
	assert.Contains(t, progress.String(), "Compressing")
}

func TestEntries(t *testing.T) {
	root := t.TempDir()
	zipPath := filepath.Join(root, "pics.zip")

	entries, err := Entries(zipPath)
	require.NoError(t, err)
	assert.Empty(t, entries)

	src := filepath.Join(root, "src")
	writeFiles(t, src, map[string]string{"a.jpg": "a", "b.png": "b"})
	_, err = Compress(src, zipPath, Options{})
	require.NoError(t, err)

	entries, err = Entries(zipPath)
	require.NoError(t, err)
	want := map[string]struct{}{"a.jpg": {}, "b.png": {}}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("entries mismatch (-want +got):\n%s", diff)
	}
}
