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


package analyzer

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"
	"unicode"

	"github.com/avast/retry-go/v4"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"golang.org/x/sync/errgroup"
)

const (
	// TextSectionHeader labels the OCR section of an analysis.
	TextSectionHeader = "TEXT CONTENT FOUND IN IMAGE:"

	// VisualSectionHeader labels the vision-description section of an analysis.
	VisualSectionHeader = "VISUAL CONTENT DESCRIPTION:"

	// DefaultNoiseThreshold is the number of non-space characters OCR output
	// must exceed to be kept.
	DefaultNoiseThreshold = 5

	// DefaultFallbackDescription replaces the vision description when the
	// vision call fails.
	DefaultFallbackDescription = "The image could not be analyzed automatically. " +
		"No description of its visual content is available, but you can still ask questions about it by name."

	defaultAttempts = 3
	defaultDelay    = 500 * time.Millisecond
)

// ErrDescriberRequired is returned by New when no describer is given.
var ErrDescriberRequired = errors.New("analyzer: image describer is required")

// Analyzer composes OCR and vision description.
type Analyzer struct {
	describer      ai.ImageDescriber
	recognizer     ai.TextRecognizer
	noiseThreshold int
	fallback       string
	attempts       uint
	delay          time.Duration
	logger         *slog.Logger
}

var _ extract.Extractor = (*Analyzer)(nil)

// Option configures an Analyzer.
type Option func(*Analyzer) error

// WithNoiseThreshold sets how many non-space characters OCR output must
// exceed to count as text.
func WithNoiseThreshold(n int) Option {
	return func(a *Analyzer) error {
		if n < 0 {
			return errors.New("noise threshold must not be negative")
		}
		a.noiseThreshold = n
		return nil
	}
}

// WithFallbackDescription replaces the description used when the vision call fails.
func WithFallbackDescription(description string) Option {
	return func(a *Analyzer) error {
		if strings.TrimSpace(description) == "" {
			return errors.New("fallback description must not be empty")
		}
		a.fallback = description
		return nil
	}
}

// WithRetry sets the number of vision call attempts and the initial backoff.
func WithRetry(attempts uint, delay time.Duration) Option {
	return func(a *Analyzer) error {
		if attempts < 1 {
			return errors.New("attempts must be at least 1")
		}
		a.attempts = attempts
		a.delay = delay
		return nil
	}
}

// WithLogger sets a custom logger for the analyzer.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Analyzer) error {
		a.logger = logger
		return nil
	}
}

// New creates an analyzer. recognizer may be nil, in which case the OCR
// pass is skipped.
func New(describer ai.ImageDescriber, recognizer ai.TextRecognizer, opts ...Option) (*Analyzer, error) {
	if describer == nil {
		return nil, ErrDescriberRequired
	}

	a := &Analyzer{
		describer:      describer,
		recognizer:     recognizer,
		noiseThreshold: DefaultNoiseThreshold,
		fallback:       DefaultFallbackDescription,
		attempts:       defaultAttempts,
		delay:          defaultDelay,
		logger:         slog.Default().With("component", "image-analyzer"),
	}
	for _, opt := range opts {
		if err := opt(a); err != nil {
			return nil, err
		}
	}
	return a, nil
}

// NewFromProvider creates an analyzer from the provider's services.
func NewFromProvider(provider ai.AIProvider, opts ...Option) (*Analyzer, error) {
	return New(provider.Describer(), provider.Recognizer(), opts...)
}

// AnalyzeImage runs both passes and merges them. The result is never empty.
func (a *Analyzer) AnalyzeImage(ctx context.Context, image []byte, mediaType string) string {
	var (
		ocrText     string
		description string
		g           errgroup.Group
	)

	g.Go(func() error {
		ocrText = a.recognize(ctx, image, mediaType)
		return nil
	})
	g.Go(func() error {
		description = a.describe(ctx, image, mediaType)
		return nil
	})
	_ = g.Wait()

	return merge(ocrText, description)
}

// Extract implements extract.Extractor for images.
func (a *Analyzer) Extract(ctx context.Context, artifact *core.Artifact) (string, error) {
	text := a.AnalyzeImage(ctx, artifact.Data, artifact.MediaType)
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return text, nil
}

// recognize returns OCR text, or "" on failure or noise.
func (a *Analyzer) recognize(ctx context.Context, image []byte, mediaType string) string {
	if a.recognizer == nil {
		return ""
	}

	text, err := a.recognizer.RecognizeText(ctx, image, mediaType)
	if err != nil {
		if !errors.Is(err, ai.ErrNoText) {
			a.logger.Debug("OCR pass failed", "media_type", mediaType, "err", err)
		}
		return ""
	}

	text = strings.TrimSpace(text)
	if countNonSpace(text) <= a.noiseThreshold {
		a.logger.Debug("discarding OCR output below noise threshold", "chars", len(text))
		return ""
	}
	return text
}

// describe returns the vision description, or the fallback once every
// attempt failed.
func (a *Analyzer) describe(ctx context.Context, image []byte, mediaType string) string {
	var description string
	err := retry.Do(
		func() error {
			d, err := a.describer.DescribeImage(ctx, image, mediaType)
			if err != nil {
				return err
			}
			if strings.TrimSpace(d) == "" {
				return ai.ErrEmptyResponse
			}
			description = strings.TrimSpace(d)
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(a.attempts),
		retry.Delay(a.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
		retry.RetryIf(func(err error) bool {
			return !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded)
		}),
		retry.OnRetry(func(n uint, err error) {
			a.logger.Debug("retrying vision description", "attempt", n+1, "err", err)
		}),
	)
	if err != nil {
		a.logger.Warn("vision description failed, using fallback", "media_type", mediaType, "err", err)
		return a.fallback
	}
	return description
}

func merge(ocrText, description string) string {
	var b strings.Builder
	if ocrText != "" {
		b.WriteString(TextSectionHeader)
		b.WriteString("\n")
		b.WriteString(ocrText)
		b.WriteString("\n\n")
	}
	b.WriteString(VisualSectionHeader)
	b.WriteString("\n")
	b.WriteString(description)
	return b.String()
}

func countNonSpace(s string) int {
	n := 0
	for _, r := range s {
		if !unicode.IsSpace(r) {
			n++
		}
	}
	return n
}
