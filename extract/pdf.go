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
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
	"github.com/poiesic/docent/core"
)

const (
	pdfFailureMessage = "Failed to extract text from the PDF. Please use a text-based PDF or check the file."

	// pageSeparator is appended after every page's text.
	pageSeparator = "\n\n"

	// TJ kerning adjustments at or below this value (thousandths of an em)
	// are rendered as a word gap.
	tjSpaceThreshold = -250
)

// PDFExtractor reads the text layer of a PDF.
type PDFExtractor struct{}

var _ Extractor = (*PDFExtractor)(nil)

// NewPDFExtractor creates a PDF extractor.
func NewPDFExtractor() *PDFExtractor {
	return &PDFExtractor{}
}

// Extract walks the pages in ascending order. Text items of a page are
// joined with spaces in content-stream order and pageSeparator follows each
// page. A document without any text yields ErrNoTextLayer.
func (e *PDFExtractor) Extract(ctx context.Context, artifact *core.Artifact) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = newExtractionError(FormatPDF, artifact, pdfFailureMessage,
				fmt.Errorf("%w: %v", ErrInvalidPDF, r))
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(artifact.Data), int64(len(artifact.Data)))
	if err != nil {
		return "", newExtractionError(FormatPDF, artifact, pdfFailureMessage,
			fmt.Errorf("%w: %w", ErrInvalidPDF, err))
	}

	var b strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		page := reader.Page(i)
		// Blank pages may omit Contents entirely
		if page.V.IsNull() || page.V.Key("Contents").Kind() == pdf.Null {
			continue
		}
		b.WriteString(strings.Join(pageTextItems(page), " "))
		b.WriteString(pageSeparator)
	}

	text = strings.TrimSpace(b.String())
	if text == "" {
		return "", newExtractionError(FormatPDF, artifact, pdfFailureMessage, ErrNoTextLayer)
	}
	return text, nil
}

// pageTextItems returns the decoded strings shown by a page's text operators.
func pageTextItems(page pdf.Page) []string {
	fonts := make(map[string]pdf.TextEncoding)
	for _, name := range page.Fonts() {
		fonts[name] = page.Font(name).Encoder()
	}

	var (
		items []string
		enc   pdf.TextEncoding
	)
	decode := func(raw string) string {
		if enc == nil {
			return raw
		}
		return enc.Decode(raw)
	}
	show := func(raw string) {
		if s := strings.TrimSpace(decode(raw)); s != "" {
			items = append(items, s)
		}
	}

	pdf.Interpret(page.V.Key("Contents"), func(stk *pdf.Stack, op string) {
		n := stk.Len()
		args := make([]pdf.Value, n)
		for i := n - 1; i >= 0; i-- {
			args[i] = stk.Pop()
		}

		switch op {
		case "Tf":
			if n == 2 {
				enc = fonts[args[0].Name()]
			}
		case "Tj", "'":
			if n >= 1 {
				show(args[n-1].RawString())
			}
		case "\"":
			if n == 3 {
				show(args[2].RawString())
			}
		case "TJ":
			if n == 1 && args[0].Kind() == pdf.Array {
				show(joinTJ(args[0], decode))
			}
		}
	})
	return items
}

// joinTJ flattens a TJ array into one string, turning wide negative
// adjustments into spaces.
func joinTJ(arr pdf.Value, decode func(string) string) string {
	var b strings.Builder
	for i := 0; i < arr.Len(); i++ {
		v := arr.Index(i)
		switch v.Kind() {
		case pdf.String:
			b.WriteString(decode(v.RawString()))
		case pdf.Integer, pdf.Real:
			if v.Float64() <= tjSpaceThreshold {
				b.WriteByte(' ')
			}
		}
	}
	return b.String()
}
