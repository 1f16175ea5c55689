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


package openai

import (
	"errors"
	"log/slog"

	"github.com/poiesic/docent/ai"
)

// ErrRecognizerRequired is returned when the config selects an OCR backend
// this package cannot build and no recognizer was supplied.
var ErrRecognizerRequired = errors.New("openai provider: OCR backend requires WithRecognizer")

// Provider implements ai.AIProvider using OpenAI-compatible services.
// It manages describer and recognizer instances.
type Provider struct {
	config     *ai.Config
	describer  *ImageDescriber
	recognizer ai.TextRecognizer
	logger     *slog.Logger
}

// ProviderOption configures a Provider.
type ProviderOption func(*Provider)

// WithRecognizer replaces the transcription recognizer, for example with a
// local Tesseract engine.
func WithRecognizer(recognizer ai.TextRecognizer) ProviderOption {
	return func(p *Provider) {
		p.recognizer = recognizer
	}
}

// NewProvider creates a new AI provider with OpenAI-compatible services.
// The config is validated and normalized before use.
// Returns ai.AIProvider interface (not *Provider) to enforce abstraction
// and prevent coupling to OpenAI-specific implementation details.
func NewProvider(config *ai.Config, opts ...ProviderOption) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	describer, err := newImageDescriber(config)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		config:    config,
		describer: describer,
		logger:    slog.Default().With("component", "openai-provider"),
	}
	for _, opt := range opts {
		opt(p)
	}

	if p.recognizer == nil {
		if config.OCRBackend != ai.OCRBackendVision {
			return nil, ErrRecognizerRequired
		}
		recognizer, err := newTextRecognizer(config)
		if err != nil {
			return nil, err
		}
		p.recognizer = recognizer
	}

	return p, nil
}

// Describer returns the vision-description service.
func (p *Provider) Describer() ai.ImageDescriber {
	return p.describer
}

// Recognizer returns the OCR service.
func (p *Provider) Recognizer() ai.TextRecognizer {
	return p.recognizer
}

// Close releases resources held by the provider.
// Currently a no-op as the underlying clients don't require explicit cleanup.
func (p *Provider) Close() error {
	p.logger.Debug("closing OpenAI provider")
	return nil
}
