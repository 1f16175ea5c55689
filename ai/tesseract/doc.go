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


// Package tesseract provides a local OCR engine backed by Tesseract.
//
// The engine needs cgo and the Tesseract and Leptonica libraries, so it is
// only compiled with the "tesseract" build tag:
//
//	go build -tags tesseract ./...
//
// Without the tag NewRecognizer returns ErrUnavailable.
package tesseract

import "errors"

// ErrUnavailable is returned when the binary was built without Tesseract support.
var ErrUnavailable = errors.New("tesseract OCR not available in this build")
