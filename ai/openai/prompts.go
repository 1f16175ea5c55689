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


package openai

import (
	"encoding/base64"
	"strings"
)

const describeSystemPrompt = `You are an image analyst. You describe images for a reader who cannot see them.
Be factual and specific. Never speculate about things that are not visible.`

const describePrompt = `Describe this image comprehensively. Cover:
- Objects and their arrangement
- People, their appearance and what they are doing
- Any visible text, quoted exactly
- Dominant colors
- The setting or environment
- Activities or events taking place

Write plain prose paragraphs. Do not add a preamble.`

// noTextReply is the sentinel the transcription prompt asks for when an
// image has no text.
const noTextReply = "NONE"

const transcribeSystemPrompt = `You are an OCR engine. You output only the text that appears in images.`

const transcribePrompt = `Transcribe all text visible in this image exactly as written, preserving line breaks
and reading order (left to right, top to bottom). Do not describe the image, translate, summarize or
correct spelling. Output ONLY the transcribed text with no preamble or commentary.
If the image contains no readable text, reply with the single word ` + noTextReply + `.`

// dataURL encodes an image as a base64 data URL.
func dataURL(image []byte, mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	mt = strings.TrimSpace(mt)
	if mt == "" {
		mt = "application/octet-stream"
	}
	return "data:" + mt + ";base64," + base64.StdEncoding.EncodeToString(image)
}
