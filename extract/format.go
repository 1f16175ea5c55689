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
	"path/filepath"
	"strings"
)

// Format identifies an extraction strategy.
type Format int

const (
	FormatUnsupported Format = iota
	FormatPDF
	FormatDOCX
	FormatPlainText
	FormatImage
)

const (
	MediaTypePDF  = "application/pdf"
	MediaTypeDOCX = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	MediaTypeDOC  = "application/msword"
	MediaTypeText = "text/plain"
)

// Formats lists every format in classification order.
var Formats = []Format{FormatPDF, FormatDOCX, FormatPlainText, FormatImage, FormatUnsupported}

func (f Format) String() string {
	switch f {
	case FormatPDF:
		return "pdf"
	case FormatDOCX:
		return "docx"
	case FormatPlainText:
		return "text"
	case FormatImage:
		return "image"
	default:
		return "unsupported"
	}
}

// Classify picks the format for an artifact. The first matching rule wins:
// PDF, DOCX (legacy .doc included), plain text, then any image/* type.
// Unknown inputs map to FormatUnsupported.
func Classify(mediaType, filename string) Format {
	mt := baseMediaType(mediaType)
	ext := strings.ToLower(filepath.Ext(filename))

	switch {
	case mt == MediaTypePDF || ext == ".pdf":
		return FormatPDF
	case mt == MediaTypeDOCX || mt == MediaTypeDOC || ext == ".docx" || ext == ".doc":
		return FormatDOCX
	case mt == MediaTypeText || ext == ".txt":
		return FormatPlainText
	case strings.HasPrefix(mt, "image/"):
		return FormatImage
	default:
		return FormatUnsupported
	}
}

func baseMediaType(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}
