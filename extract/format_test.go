package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	tests := []struct {
		name      string
		mediaType string
		filename  string
		want      Format
	}{
		{"pdf by type", "application/pdf", "scan", FormatPDF},
		{"pdf by extension", "application/octet-stream", "Report.PDF", FormatPDF},
		{"docx by type", MediaTypeDOCX, "letter", FormatDOCX},
		{"docx by extension", "", "letter.docx", FormatDOCX},
		{"legacy doc", MediaTypeDOC, "old.doc", FormatDOCX},
		{"text with charset", "text/plain; charset=utf-16le", "notes", FormatPlainText},
		{"text by extension", "", "notes.txt", FormatPlainText},
		{"image", "image/png", "photo.png", FormatImage},
		{"image with odd subtype", "image/tiff", "scan.tiff", FormatImage},
		{"pdf wins over image type", "image/png", "actually.pdf", FormatPDF},
		{"unsupported", "application/zip", "archive.zip", FormatUnsupported},
		{"empty", "", "", FormatUnsupported},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Classify(tt.mediaType, tt.filename))
		})
	}
}

func TestClassify_Total(t *testing.T) {
	inputs := []string{"", " ", ";", "image/", "IMAGE/PNG", "text/plain;;;", "\x00", "a.b.c", ".pdf.exe"}
	for _, mt := range inputs {
		for _, name := range inputs {
			got := Classify(mt, name)
			assert.Contains(t, Formats, got)
		}
	}
}

func TestFormatString(t *testing.T) {
	assert.Equal(t, "pdf", FormatPDF.String())
	assert.Equal(t, "image", FormatImage.String())
	assert.Equal(t, "unsupported", Format(99).String())
}
