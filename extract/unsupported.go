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
	"fmt"

	"github.com/poiesic/docent/core"
)

// UnsupportedExtractor describes the file instead of failing, so a chat can
// still be created for types no extractor understands.
type UnsupportedExtractor struct{}

var _ Extractor = (*UnsupportedExtractor)(nil)

func NewUnsupportedExtractor() *UnsupportedExtractor {
	return &UnsupportedExtractor{}
}

func (e *UnsupportedExtractor) Extract(ctx context.Context, artifact *core.Artifact) (string, error) {
	mediaType := artifact.MediaType
	if mediaType == "" {
		mediaType = "unknown"
	}
	return fmt.Sprintf("File: %s attached. Type: %s. Text extraction is not supported for this file type.",
		artifact.Name, mediaType), nil
}
