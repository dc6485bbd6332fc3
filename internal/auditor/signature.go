package auditor

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// Metadata holds the fields of a PDF's Info dictionary we care about.
type Metadata struct {
	Title        string `json:"title,omitempty"`
	Author       string `json:"author,omitempty"`
	Subject      string `json:"subject,omitempty"`
	Creator      string `json:"creator,omitempty"`
	Producer     string `json:"producer,omitempty"`
	CreationDate string `json:"creation_date,omitempty"`
	ModDate      string `json:"modification_date,omitempty"`
}

// IntegrityReport is the result of verifying one PDF file.
type IntegrityReport struct {
	Filepath     string    `json:"filepath"`
	FileSize     int64     `json:"file_size"`
	FileHash     string    `json:"file_hash,omitempty"`
	PageCount    int       `json:"page_count,omitempty"`
	HasSignature bool      `json:"has_signature"`
	Metadata     *Metadata `json:"metadata,omitempty"`
	Verified     bool      `json:"verified"`
	Warnings     []string  `json:"warnings"`
	Error        string    `json:"error,omitempty"`
}

// aiToolMarkers are producer/creator substrings that indicate a document
// was exported by an AI authoring tool.
var aiToolMarkers = []string{"chatgpt", "gpt-", "claude", "bard", "gemini", "copilot", "openai"}

// SignatureVerifier checks PDF integrity: file hash, metadata sanity and
// presence of digital signature fields. It does not validate signature
// cryptography; it reports whether signature fields exist.
type SignatureVerifier struct{}

// NewSignatureVerifier returns a verifier.
func NewSignatureVerifier() *SignatureVerifier { return &SignatureVerifier{} }

// VerifyPDF runs all integrity checks on the file. Parse failures are
// reported in the result rather than returned as an error, so a broken
// file still yields a (failed) report.
func (v *SignatureVerifier) VerifyPDF(path string) *IntegrityReport {
	report := &IntegrityReport{Filepath: path, Verified: true, Warnings: []string{}}

	info, err := os.Stat(path)
	if err != nil {
		report.Verified = false
		report.Error = "file not found"
		return report
	}
	report.FileSize = info.Size()

	if hash, err := fileHash(path); err == nil {
		report.FileHash = hash
	}

	v.inspect(path, report)

	suspicious := suspiciousMetadata(report.Metadata)
	if len(suspicious) > 0 {
		report.Warnings = append(report.Warnings, suspicious...)
		report.Verified = false
	}
	return report
}

// inspect reads structural details from the PDF. Kept separate so a
// parser panic on a malformed file only aborts this part of the check.
func (v *SignatureVerifier) inspect(path string, report *IntegrityReport) {
	defer func() {
		if r := recover(); r != nil {
			report.Verified = false
			report.Error = fmt.Sprintf("malformed pdf: %v", r)
		}
	}()

	f, reader, err := pdf.Open(path)
	if err != nil {
		report.Verified = false
		report.Error = err.Error()
		return
	}
	defer f.Close()

	report.PageCount = reader.NumPage()

	trailer := reader.Trailer()
	infoDict := trailer.Key("Info")
	if infoDict.IsNull() {
		report.Warnings = append(report.Warnings, "No metadata found")
	} else {
		report.Metadata = &Metadata{
			Title:        infoDict.Key("Title").Text(),
			Author:       infoDict.Key("Author").Text(),
			Subject:      infoDict.Key("Subject").Text(),
			Creator:      infoDict.Key("Creator").Text(),
			Producer:     infoDict.Key("Producer").Text(),
			CreationDate: infoDict.Key("CreationDate").Text(),
			ModDate:      infoDict.Key("ModDate").Text(),
		}
	}

	report.HasSignature = hasSignatureField(trailer)
}

// hasSignatureField walks the AcroForm field list looking for a /Sig
// field type.
func hasSignatureField(trailer pdf.Value) bool {
	fields := trailer.Key("Root").Key("AcroForm").Key("Fields")
	if fields.Kind() != pdf.Array {
		return false
	}
	for i := 0; i < fields.Len(); i++ {
		if fields.Index(i).Key("FT").Name() == "Sig" {
			return true
		}
	}
	return false
}

// suspiciousMetadata flags metadata patterns worth warning about: AI
// authoring tool markers in Creator/Producer and a missing creation date.
func suspiciousMetadata(meta *Metadata) []string {
	if meta == nil {
		return nil
	}
	var warnings []string
	creator := strings.ToLower(meta.Creator)
	producer := strings.ToLower(meta.Producer)
	for _, marker := range aiToolMarkers {
		if strings.Contains(creator, marker) || strings.Contains(producer, marker) {
			warnings = append(warnings, fmt.Sprintf("Metadata indicates AI tool: %s", marker))
		}
	}
	if meta.CreationDate == "" {
		warnings = append(warnings, "Missing creation date")
	}
	return warnings
}

func fileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
