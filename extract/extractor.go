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


package extract

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/poiesic/docent/core"
)

var (
	// ErrInvalidPDF indicates the bytes are not a readable PDF container.
	ErrInvalidPDF = errors.New("invalid pdf")

	// ErrNoTextLayer indicates a PDF without extractable text, such as a scan.
	ErrNoTextLayer = errors.New("no extractable text layer")

	// ErrCorruptPackage indicates a DOCX package that cannot be opened.
	ErrCorruptPackage = errors.New("corrupt document package")
)

// Extractor turns an artifact into text.
// Implementations must be safe for concurrent use.
type Extractor interface {
	Extract(ctx context.Context, artifact *core.Artifact) (string, error)
}

// ExtractorFunc adapts a function to the Extractor interface.
type ExtractorFunc func(ctx context.Context, artifact *core.Artifact) (string, error)

func (f ExtractorFunc) Extract(ctx context.Context, artifact *core.Artifact) (string, error) {
	return f(ctx, artifact)
}

// ExtractionError reports a failed extraction.
type ExtractionError struct {
	Format   Format
	FileName string
	// Message is the explanation shown to the user.
	Message string
	Cause   error
}

func (e *ExtractionError) Error() string {
	return fmt.Sprintf("%s extraction of %q failed: %v", e.Format, e.FileName, e.Cause)
}

func (e *ExtractionError) Unwrap() error {
	return e.Cause
}

func newExtractionError(format Format, artifact *core.Artifact, message string, cause error) *ExtractionError {
	return &ExtractionError{
		Format:   format,
		FileName: artifact.Name,
		Message:  message,
		Cause:    cause,
	}
}

// Registry maps formats to extractors.
type Registry struct {
	mu         sync.RWMutex
	extractors map[Format]Extractor
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		extractors: make(map[Format]Extractor),
	}
}

// DefaultRegistry returns a registry with the PDF, DOCX, plain-text and
// unsupported extractors. The image extractor must be registered by the caller.
func DefaultRegistry() *Registry {
	reg := NewRegistry()
	reg.Register(FormatPDF, NewPDFExtractor())
	reg.Register(FormatDOCX, NewDOCXExtractor())
	reg.Register(FormatPlainText, NewPlainTextExtractor())
	reg.Register(FormatUnsupported, NewUnsupportedExtractor())
	return reg
}

// Register sets the extractor for a format, replacing any previous one.
func (r *Registry) Register(format Format, extractor Extractor) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.extractors[format] = extractor
}

// For returns the extractor registered for format.
func (r *Registry) For(format Format) (Extractor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.extractors[format]
	return e, ok
}
