package mock

import (
	"context"
	"fmt"
	"sync"
)

// MockDescriber is a test double for ai.ImageDescriber.
// It allows custom behavior injection via function fields.
type MockDescriber struct {
	// DescribeImageFunc is called by DescribeImage if set.
	// If nil, returns a fixed description naming the media type and size.
	DescribeImageFunc func(ctx context.Context, image []byte, mediaType string) (string, error)

	mu        sync.Mutex
	callCount int
}

// NewMockDescriber creates a mock describer with default behavior.
// Note: Returns concrete type to allow test assertions via GetMockDescriber().
func NewMockDescriber() *MockDescriber {
	return &MockDescriber{}
}

// WithDescribeImageFunc sets the behavior of DescribeImage.
func (m *MockDescriber) WithDescribeImageFunc(fn func(ctx context.Context, image []byte, mediaType string) (string, error)) *MockDescriber {
	m.DescribeImageFunc = fn
	return m
}

// DescribeImage returns the injected result or a fixed description.
func (m *MockDescriber) DescribeImage(ctx context.Context, image []byte, mediaType string) (string, error) {
	m.mu.Lock()
	m.callCount++
	m.mu.Unlock()

	if m.DescribeImageFunc != nil {
		return m.DescribeImageFunc(ctx, image, mediaType)
	}
	return fmt.Sprintf("An image of type %s, %d bytes.", mediaType, len(image)), nil
}

// CallCount returns the number of times DescribeImage was called.
func (m *MockDescriber) CallCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.callCount
}

// Reset clears the call count and injected behavior.
func (m *MockDescriber) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.callCount = 0
	m.DescribeImageFunc = nil
}
