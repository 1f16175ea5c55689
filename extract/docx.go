// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package extract

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/fumiama/go-docx"
	"github.com/poiesic/docent/core"
)

const docxFailureMessage = "Failed to extract text from DOCX. File might be corrupted or unsupported."

// DOCXExtractor extracts raw text from a wordprocessing package,
// discarding formatting.
type DOCXExtractor struct{}

var _ Extractor = (*DOCXExtractor)(nil)

// NewDOCXExtractor creates a DOCX extractor.
func NewDOCXExtractor() *DOCXExtractor {
	return &DOCXExtractor{}
}

// Extract returns one line per paragraph. Table rows become lines with
// tab-separated cells.
func (e *DOCXExtractor) Extract(ctx context.Context, artifact *core.Artifact) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newExtractionError(FormatDOCX, artifact, docxFailureMessage,
				fmt.Errorf("%w: %v", ErrCorruptPackage, r))
		}
	}()

	doc, err := docx.Parse(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
	if err != nil {
		return "", newExtractionError(FormatDOCX, artifact, docxFailureMessage,
			fmt.Errorf("%w: %w", ErrCorruptPackage, err))
	}
	if doc.Document.XMLName.Local != "document" {
		return "", newExtractionError(FormatDOCX, artifact, docxFailureMessage,
			fmt.Errorf("%w: %w", ErrCorruptPackage, errors.New("missing word/document.xml")))
	}
	if err := ctx.Err(); err != nil {
		return "", err
	}

	var lines []string
	for _, item := range doc.Document.Body.Items {
		switch v := item.(type) {
		case *docx.Paragraph:
			lines = append(lines, paragraphText(v))
		case *docx.Table:
			lines = append(lines, tableLines(v)...)
		}
	}
	return strings.TrimSpace(strings.Join(lines, "\n")), nil
}

func paragraphText(p *docx.Paragraph) string {
	var b strings.Builder
	for _, child := range p.Children {
		switch v := child.(type) {
		case *docx.Run:
			writeRun(&b, v)
		case *docx.Hyperlink:
			writeRun(&b, &v.Run)
		}
	}
	return b.String()
}

func writeRun(b *strings.Builder, r *docx.Run) {
	for _, child := range r.Children {
		switch v := child.(type) {
		case *docx.Text:
			b.WriteString(v.Text)
		case *docx.Tab:
			b.WriteByte('\t')
		case *docx.BarterRabbet:
			b.WriteByte('\n')
		}
	}
}

func tableLines(t *docx.Table) []string {
	var lines []string
	for _, row := range t.TableRows {
		cells := make([]string, 0, len(row.TableCells))
		for _, cell := range row.TableCells {
			var parts []string
			for _, p := range cell.Paragraphs {
				parts = append(parts, paragraphText(p))
			}
			for _, nested := range cell.Tables {
				parts = append(parts, tableLines(nested)...)
			}
			cells = append(cells, strings.Join(parts, " "))
		}
		lines = append(lines, strings.Join(cells, "\t"))
	}
	return lines
}
