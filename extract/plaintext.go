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
	"context"
	"mime"
	"strings"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/poiesic/docent/core"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

type PlainTextExtractor struct{}

var _ Extractor = (*PlainTextExtractor)(nil)

// NewPlainTextExtractor creates a plain-text extractor.
func NewPlainTextExtractor() *PlainTextExtractor {
	return &PlainTextExtractor{}
}

// Extract decodes with the charset declared on the media type. An unknown
// declared charset falls back to the one detected from content, and bytes
// that still do not decode are replaced with U+FFFD. A leading byte order
// mark is dropped. Reading an in-memory buffer cannot fail, so neither can
// Extract.
func (e *PlainTextExtractor) Extract(ctx context.Context, artifact *core.Artifact) (string, error) {
	if len(artifact.Data) == 0 {
		return "", nil
	}

	data := artifact.Data
	if enc := textEncoding(artifact.MediaType, data); enc != nil {
		if decoded, err := enc.NewDecoder().Bytes(data); err == nil {
			data = decoded
		}
	}

	text := strings.TrimPrefix(string(data), "\ufeff")
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "\ufffd")
	}
	return text, nil
}

// textEncoding resolves the declared charset, then the detected one.
// It returns nil when the text is UTF-8 or neither charset is known.
func textEncoding(mediaType string, data []byte) encoding.Encoding {
	for _, charset := range []string{charsetParam(mediaType), charsetParam(mimetype.Detect(data).String())} {
		if charset == "" {
			continue
		}
		if isUTF8(charset) {
			return nil
		}
		if enc, err := htmlindex.Get(charset); err == nil {
			return enc
		}
	}
	return nil
}

func charsetParam(mediaType string) string {
	if mediaType == "" {
		return ""
	}
	_, params, err := mime.ParseMediaType(mediaType)
	if err != nil {
		return ""
	}
	return strings.ToLower(params["charset"])
}

func isUTF8(charset string) bool {
	return charset == "utf-8" || charset == "utf8" || charset == "us-ascii"
}
