package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadAttachments(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	photo := filepath.Join(dir, "wedding.JPG")
	notes := filepath.Join(dir, "notes.txt")
	require.NoError(t, os.WriteFile(photo, []byte("jpeg"), 0o644))
	require.NoError(t, os.WriteFile(notes, []byte("some notes"), 0o644))

	got, err := loadAttachments([]string{photo, notes})
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, "wedding.JPG", got[0].Name)
	assert.Equal(t, "image/jpeg", got[0].MediaType)
	assert.Equal(t, int64(4), got[0].Size)
	assert.Equal(t, photo, got[0].Preview)

	assert.Equal(t, "text/plain", got[1].MediaType)
	assert.Empty(t, got[1].Preview)
}

func TestLoadAttachments_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	_, err := loadAttachments([]string{filepath.Join(dir, "missing.png")})
	require.Error(t, err)

	_, err = loadAttachments([]string{dir})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")
}

func TestMediaTypeOf_Unknown(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "application/octet-stream", mediaTypeOf("scan.zzunknown"))
}

func TestRenderTable(t *testing.T) {
	t.Parallel()

	out := renderTable([]string{"ID", "Name"}, [][]string{{"1", "Autobiography"}, {"2"}}, 0)
	assert.Contains(t, out, "ID")
	assert.Contains(t, out, "Autobiography")
	assert.Empty(t, renderTable(nil, nil))
}
