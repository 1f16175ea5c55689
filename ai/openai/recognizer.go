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
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// TextRecognizer implements ai.TextRecognizer by asking a vision model to
// transcribe the visible text of an image verbatim.
type TextRecognizer struct {
	client    llms.Model
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

// newTextRecognizer is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newTextRecognizer(config *ai.Config) (*TextRecognizer, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.OCRHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.OCRModel),
	)
	if err != nil {
		return nil, err
	}
	return newTextRecognizerWithModel(client, config), nil
}

func newTextRecognizerWithModel(client llms.Model, config *ai.Config) *TextRecognizer {
	return &TextRecognizer{
		client:    client,
		maxTokens: config.MaxTokens,
		timeout:   config.RequestTimeout,
		logger:    slog.Default().With("component", "openai-recognizer"),
	}
}

// NewTextRecognizer creates a new recognizer using the provided configuration.
// Returns ai.TextRecognizer interface to enforce abstraction.
func NewTextRecognizer(config *ai.Config) (ai.TextRecognizer, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newTextRecognizer(config)
}

// RecognizeText returns the transcription, or ai.ErrNoText when the model
// reports that the image holds no text.
func (r *TextRecognizer) RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("recognize text: empty image")
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(transcribeSystemPrompt)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.ImageURLPart(dataURL(image, mediaType)),
				llms.TextPart(transcribePrompt),
			},
		},
	}

	text, err := generate(ctx, r.client, r.timeout, content,
		llms.WithTemperature(0.0),
		llms.WithMaxTokens(r.maxTokens))
	if errors.Is(err, ai.ErrEmptyResponse) {
		return "", ai.ErrNoText
	}
	if err != nil {
		r.logger.Debug("transcription failed", "media_type", mediaType, "err", err)
		return "", err
	}

	text = cleanTranscription(text)
	if text == "" {
		return "", ai.ErrNoText
	}
	return text, nil
}
