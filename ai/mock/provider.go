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


package mock

import "github.com/poiesic/docent/ai"

// MockProvider is a test double for ai.AIProvider.
// It aggregates mock describer and recognizer instances.
type MockProvider struct {
	describer  *MockDescriber
	recognizer *MockRecognizer
	closed     bool
}

// NewMockProvider creates a new mock provider with default mock services.
//
// Returns ai.AIProvider interface for consistency with production constructors.
// Use GetMockDescriber()/GetMockRecognizer() to access concrete types for test assertions.
func NewMockProvider() ai.AIProvider {
	return &MockProvider{
		describer:  NewMockDescriber(),
		recognizer: NewMockRecognizer(),
	}
}

// NewMockProviderWithServices creates a mock provider with custom mock services.
// This allows full control over the behavior of each service.
func NewMockProviderWithServices(describer *MockDescriber, recognizer *MockRecognizer) ai.AIProvider {
	return &MockProvider{
		describer:  describer,
		recognizer: recognizer,
	}
}

// Describer returns the mock describer.
func (p *MockProvider) Describer() ai.ImageDescriber {
	return p.describer
}

// Recognizer returns the mock recognizer.
func (p *MockProvider) Recognizer() ai.TextRecognizer {
	return p.recognizer
}

// Close marks the provider closed.
func (p *MockProvider) Close() error {
	p.closed = true
	return nil
}

// Closed reports whether Close was called.
func (p *MockProvider) Closed() bool {
	return p.closed
}

// GetMockDescriber returns the underlying mock describer for test assertions.
func (p *MockProvider) GetMockDescriber() *MockDescriber {
	return p.describer
}

// GetMockRecognizer returns the underlying mock recognizer for test assertions.
func (p *MockProvider) GetMockRecognizer() *MockRecognizer {
	return p.recognizer
}
