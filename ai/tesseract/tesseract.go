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


//go:build tesseract

package tesseract

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/otiai10/gosseract/v2"
	"github.com/poiesic/docent/ai"
)

// Available reports whether this build includes Tesseract.
const Available = true

// Recognizer implements ai.TextRecognizer with a local Tesseract engine.
type Recognizer struct {
	language string
	logger   *slog.Logger
}

var _ ai.TextRecognizer = (*Recognizer)(nil)

// NewRecognizer creates a recognizer for the given Tesseract language pack.
func NewRecognizer(language string) (*Recognizer, error) {
	if language == "" {
		language = "eng"
	}
	return &Recognizer{
		language: language,
		logger:   slog.Default().With("component", "tesseract"),
	}, nil
}

// RecognizeText runs OCR over the full image.
// A gosseract client is not safe for concurrent use, so each call gets its own.
func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(r.language); err != nil {
		return "", fmt.Errorf("tesseract: set language %q: %w", r.language, err)
	}
	if err := client.SetImageFromBytes(image); err != nil {
		return "", fmt.Errorf("tesseract: load image: %w", err)
	}

	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("tesseract: recognize: %w", err)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ai.ErrNoText
	}

	r.logger.Debug("recognized text", "media_type", mediaType, "chars", len(text))
	return text, nil
}
