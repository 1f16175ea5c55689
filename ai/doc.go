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


// Package ai provides abstractions for the image analysis services used by
// docent.
//
// The image content analyzer needs two remote or local collaborators: a
// vision model that describes an image, and an OCR engine that reads the
// text in it. This package defines those as interfaces so the analyzer and
// the ingestion pipeline can be tested without either.
//
// # Interfaces
//
//   - ImageDescriber: Describes an image in natural language
//   - TextRecognizer: Reads the visible text of an image
//   - AIProvider: Aggregates both services for convenient initialization
//
// # Implementation Packages
//
//   - ai/openai: Vision description and transcription over OpenAI-compatible APIs
//   - ai/tesseract: Local OCR with Tesseract (build tag "tesseract")
//   - ai/mock: Test doubles for unit testing without external dependencies
//
// # Constructor Return Type Pattern
//
// Public constructors (openai.NewProvider) return INTERFACE types to keep
// callers decoupled from a concrete implementation. Mock constructors
// (mock.NewMockDescriber, mock.NewMockRecognizer) return CONCRETE types so
// tests can inject behavior and read call counts.
//
//	provider, err := openai.NewProvider(ai.NewConfig(ai.WithHost("http://localhost:11434")))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer provider.Close()
//
//	description, err := provider.Describer().DescribeImage(ctx, png, "image/png")
//	text, err := provider.Recognizer().RecognizeText(ctx, png, "image/png")
package ai
