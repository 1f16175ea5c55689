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


package ai

import (
	"errors"
	"slices"
	"strings"
	"time"
)

type Config struct {
	// VisionHost is the base URL for the vision-description API.
	// Example: "http://localhost:11434/v1" for a local OpenAI-compatible server
	VisionHost string

	// VisionModel is the vision-capable model used to describe images.
	// Example: "llava", "gpt-4o-mini"
	VisionModel string

	// OCRHost is the base URL for the transcription API when OCRBackend is "vision".
	OCRHost string

	// OCRModel is the model asked to transcribe visible text when OCRBackend is "vision".
	OCRModel string

	// APIKey is sent as the bearer token. Local servers accept any value.
	APIKey string

	// OCRBackend selects the OCR implementation: "vision" or "tesseract".
	OCRBackend string

	// OCRLanguage is the Tesseract language pack. Default: "eng"
	OCRLanguage string

	// MaxTokens caps the length of model responses.
	MaxTokens int

	// RequestTimeout bounds a single model call. Zero disables the bound.
	RequestTimeout time.Duration

	// MaxRetries is the number of attempts made for a failed vision call.
	MaxRetries int

	// RetryDelay is the initial backoff between vision call attempts.
	RetryDelay time.Duration
}

type ConfigOption func(*Config)

func WithVisionHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
	}
}

func WithOCRHost(host string) ConfigOption {
	return func(c *Config) {
		c.OCRHost = host
	}
}

func WithHost(host string) ConfigOption {
	return func(c *Config) {
		c.VisionHost = host
		c.OCRHost = host
	}
}

func WithVisionModel(model string) ConfigOption {
	return func(c *Config) {
		c.VisionModel = model
	}
}

func WithOCRModel(model string) ConfigOption {
	return func(c *Config) {
		c.OCRModel = model
	}
}

func WithAPIKey(key string) ConfigOption {
	return func(c *Config) {
		c.APIKey = key
	}
}

func WithOCRBackend(backend string) ConfigOption {
	return func(c *Config) {
		c.OCRBackend = backend
	}
}

func WithOCRLanguage(language string) ConfigOption {
	return func(c *Config) {
		c.OCRLanguage = language
	}
}

func WithMaxTokens(n int) ConfigOption {
	return func(c *Config) {
		c.MaxTokens = n
	}
}

func WithRequestTimeout(d time.Duration) ConfigOption {
	return func(c *Config) {
		c.RequestTimeout = d
	}
}

func WithRetries(attempts int, delay time.Duration) ConfigOption {
	return func(c *Config) {
		c.MaxRetries = attempts
		c.RetryDelay = delay
	}
}

func DefaultConfig() *Config {
	defaultHost := "http://localhost:11434/v1"
	return &Config{
		VisionHost:     defaultHost,
		OCRHost:        defaultHost,
		VisionModel:    "llava",
		OCRModel:       "llava",
		APIKey:         "none",
		OCRBackend:     OCRBackendVision,
		OCRLanguage:    "eng",
		MaxTokens:      1024,
		RequestTimeout: 2 * time.Minute,
		MaxRetries:     3,
		RetryDelay:     500 * time.Millisecond,
	}
}

func NewConfig(opts ...ConfigOption) *Config {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

func (c *Config) Normalize() {
	c.VisionHost = normalizeHost(c.VisionHost)
	c.OCRHost = normalizeHost(c.OCRHost)
	c.OCRBackend = strings.ToLower(strings.TrimSpace(c.OCRBackend))
	if c.APIKey == "" {
		// langchaingo's openai client refuses an empty token
		c.APIKey = "none"
	}
}

// normalizeHost ensures OpenAI-compatible hosts end with /v1.
func normalizeHost(host string) string {
	if host == "" || strings.HasSuffix(host, "/v1") {
		return host
	}
	return strings.TrimSuffix(host, "/") + "/v1"
}

func (c *Config) Validate() error {
	// Normalize first to ensure hosts are in correct format
	c.Normalize()

	if c.VisionHost == "" {
		return errors.New("ai config: VisionHost is required")
	}
	if c.VisionModel == "" {
		return errors.New("ai config: VisionModel is required")
	}
	if !slices.Contains(OCRBackends, c.OCRBackend) {
		return errors.New("ai config: OCRBackend must be one of " + strings.Join(OCRBackends, ", "))
	}
	if c.OCRBackend == OCRBackendVision {
		if c.OCRHost == "" {
			return errors.New("ai config: OCRHost is required")
		}
		if c.OCRModel == "" {
			return errors.New("ai config: OCRModel is required")
		}
	}
	if c.OCRBackend == OCRBackendTesseract && c.OCRLanguage == "" {
		return errors.New("ai config: OCRLanguage is required")
	}
	if c.MaxTokens < 1 {
		return errors.New("ai config: MaxTokens must be positive")
	}
	if c.MaxRetries < 1 {
		return errors.New("ai config: MaxRetries must be at least 1")
	}
	if c.RequestTimeout < 0 || c.RetryDelay < 0 {
		return errors.New("ai config: durations must not be negative")
	}
	return nil
}
