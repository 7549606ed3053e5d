package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateProjectID(t *testing.T) {
	assert.NoError(t, ValidateProjectID("12345"))
	assert.NoError(t, ValidateProjectID("00000"))

	for _, id := range []string{"", "12", "1234", "123456", "abcde", "1234a", "12 45", "../12"} {
		err := ValidateProjectID(id)
		var verr *ValidationError
		require.ErrorAs(t, err, &verr, id)
		assert.Equal(t, "Invalid project ID format. Must be a 5-digit number.", verr.Error())
	}
}

func TestFindProjectPDFsWalksRecursively(t *testing.T) {
	dataDir := t.TempDir()
	project := filepath.Join(dataDir, "12345")
	require.NoError(t, os.MkdirAll(filepath.Join(project, "sub", "deeper"), 0o755))
	for _, name := range []string{"b.pdf", "sub/a.PDF", "sub/deeper/c.pdf", "notes.txt", "sub/pdf"} {
		require.NoError(t, os.WriteFile(filepath.Join(project, name), []byte("x"), 0o644))
	}

	files, err := FindProjectPDFs(dataDir, "12345")

	require.NoError(t, err)
	want := []string{
		filepath.Join(project, "b.pdf"),
		filepath.Join(project, "sub", "a.PDF"),
		filepath.Join(project, "sub", "deeper", "c.pdf"),
	}
	assert.Equal(t, want, files)
}

func TestFindProjectPDFsMissingDirectory(t *testing.T) {
	files, err := FindProjectPDFs(t.TempDir(), "54321")
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestFindProjectPDFsRejectsInvalidID(t *testing.T) {
	_, err := FindProjectPDFs(t.TempDir(), "../etc")
	var verr *ValidationError
	assert.ErrorAs(t, err, &verr)
}

func TestFindProjectPDFsRejectsFile(t *testing.T) {
	dataDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dataDir, "12345"), []byte("x"), 0o644))
	_, err := FindProjectPDFs(dataDir, "12345")
	assert.Error(t, err)
}
