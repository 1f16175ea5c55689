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


// Package analyzer implements the image content analyzer.
//
// An image goes through two independent passes that run concurrently: OCR,
// which reads any visible text, and a vision model, which describes what the
// image shows. The results are merged into one labeled text block that can
// serve as grounding context for a conversation.
//
// Analysis never fails. OCR errors or noise-level OCR output drop the text
// section, and a vision failure is replaced by a fixed fallback description.
package analyzer
