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


//go:build !tesseract

package tesseract

import (
	"context"

	"github.com/poiesic/docent/ai"
)

// Available reports whether this build includes Tesseract.
const Available = false

// Recognizer is a placeholder in builds without Tesseract.
type Recognizer struct{}

var _ ai.TextRecognizer = (*Recognizer)(nil)

// NewRecognizer always fails with ErrUnavailable in this build.
func NewRecognizer(language string) (*Recognizer, error) {
	return nil, ErrUnavailable
}

func (r *Recognizer) RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error) {
	return "", ErrUnavailable
}
