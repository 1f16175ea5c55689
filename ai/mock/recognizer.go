package mock

import (
	"context"
	"sync"

	"github.com/poiesic/docent/ai"
)

// MockRecognizer is a test double for ai.TextRecognizer.
// It allows custom behavior injection via function fields.
type MockRecognizer struct {
	// RecognizeTextFunc is called by RecognizeText if set.
	// If nil, reports ai.ErrNoText.
	RecognizeTextFunc func(ctx context.Context, image []byte, mediaType string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockRecognizer creates a mock recognizer that finds no text.
// Note: Returns concrete type to allow test assertions via GetMockRecognizer().
func NewMockRecognizer() *MockRecognizer {
	return &MockRecognizer{}
}

// WithText makes RecognizeText return text.
func (m *MockRecognizer) WithText(text string) *MockRecognizer {
	m.RecognizeTextFunc = func(ctx context.Context, image []byte, mediaType string) (string, error) {
		return text, nil
	}
	return m
}

// WithRecognizeTextFunc sets the behavior of RecognizeText.
func (m *MockRecognizer) WithRecognizeTextFunc(fn func(ctx context.Context, image []byte, mediaType string) (string, error)) *MockRecognizer {
	m.RecognizeTextFunc = fn
	return m
}

func (m *MockRecognizer) RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.RecognizeTextFunc != nil {
		return m.RecognizeTextFunc(ctx, image, mediaType)
	}
	return "", ai.ErrNoText
}

// CallCount returns the number of times RecognizeText was called.
func (m *MockRecognizer) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}
