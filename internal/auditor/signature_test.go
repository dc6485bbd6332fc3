package auditor

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSuspiciousMetadataAIMarkers(t *testing.T) {
	warnings := suspiciousMetadata(&Metadata{
		Creator:      "ChatGPT Export",
		Producer:     "Acrobat Distiller",
		CreationDate: "D:20240101120000Z",
	})
	require.Len(t, warnings, 1)
	assert.Contains(t, warnings[0], "AI tool")
}

func TestSuspiciousMetadataMissingCreationDate(t *testing.T) {
	warnings := suspiciousMetadata(&Metadata{Producer: "LibreOffice 7.4"})
	require.Len(t, warnings, 1)
	assert.Equal(t, "Missing creation date", warnings[0])
}

func TestSuspiciousMetadataClean(t *testing.T) {
	warnings := suspiciousMetadata(&Metadata{
		Creator:      "Writer",
		Producer:     "LibreOffice 7.4",
		CreationDate: "D:20240101120000Z",
	})
	assert.Empty(t, warnings)

	assert.Nil(t, suspiciousMetadata(nil))
}

func TestVerifyPDFMissingFile(t *testing.T) {
	v := NewSignatureVerifier()
	report := v.VerifyPDF(filepath.Join(t.TempDir(), "nope.pdf"))
	assert.False(t, report.Verified)
	assert.Equal(t, "file not found", report.Error)
}

func TestVerifyPDFMalformedFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "broken.pdf")
	content := []byte("%PDF-1.4 this is not a real pdf body")
	require.NoError(t, os.WriteFile(path, content, 0o644))

	v := NewSignatureVerifier()
	report := v.VerifyPDF(path)

	assert.False(t, report.Verified)
	assert.NotEmpty(t, report.Error)
	assert.Equal(t, int64(len(content)), report.FileSize)

	sum := sha256.Sum256(content)
	assert.Equal(t, hex.EncodeToString(sum[:]), report.FileHash)
}
