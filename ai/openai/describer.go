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
	"strings"
	"time"

	"github.com/poiesic/docent/ai"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
)

// ImageDescriber implements ai.ImageDescriber using an OpenAI-compatible
// vision model.
type ImageDescriber struct {
	client    llms.Model
	maxTokens int
	timeout   time.Duration
	logger    *slog.Logger
}

// newImageDescriber is an internal constructor that returns the concrete type.
// Used by Provider to manage the instance.
func newImageDescriber(config *ai.Config) (*ImageDescriber, error) {
	client, err := openai.New(
		openai.WithBaseURL(config.VisionHost),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.VisionModel),
	)
	if err != nil {
		return nil, err
	}
	return newImageDescriberWithModel(client, config), nil
}

func newImageDescriberWithModel(client llms.Model, config *ai.Config) *ImageDescriber {
	return &ImageDescriber{
		client:    client,
		maxTokens: config.MaxTokens,
		timeout:   config.RequestTimeout,
		logger:    slog.Default().With("component", "openai-describer"),
	}
}

// NewImageDescriber creates a new image describer using the provided configuration.
// Returns ai.ImageDescriber interface to enforce abstraction.
func NewImageDescriber(config *ai.Config) (ai.ImageDescriber, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return newImageDescriber(config)
}

// DescribeImage sends the image as a base64 data URL together with the
// description instruction.
func (d *ImageDescriber) DescribeImage(ctx context.Context, image []byte, mediaType string) (string, error) {
	if len(image) == 0 {
		return "", errors.New("describe image: empty image")
	}

	content := []llms.MessageContent{
		{
			Role:  llms.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextPart(describeSystemPrompt)},
		},
		{
			Role: llms.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{
				llms.ImageURLPart(dataURL(image, mediaType)),
				llms.TextPart(describePrompt),
			},
		},
	}

	text, err := generate(ctx, d.client, d.timeout, content,
		llms.WithTemperature(0.2),
		llms.WithMaxTokens(d.maxTokens))
	if err != nil {
		d.logger.Error("failed to describe image", "media_type", mediaType, "bytes", len(image), "err", err)
		return "", err
	}

	d.logger.Debug("described image", "media_type", mediaType, "chars", len(text))
	return text, nil
}

// generate runs one chat completion and returns the first choice with code
// fences removed.
func generate(ctx context.Context, client llms.Model, timeout time.Duration, content []llms.MessageContent, options ...llms.CallOption) (string, error) {
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	response, err := client.GenerateContent(ctx, content, options...)
	if err != nil {
		return "", err
	}
	if len(response.Choices) < 1 {
		return "", ai.ErrEmptyResponse
	}

	text := strings.TrimSpace(stripCodeFences(response.Choices[0].Content))
	if text == "" {
		return "", ai.ErrEmptyResponse
	}
	return text, nil
}
