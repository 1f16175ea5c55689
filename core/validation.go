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


package core

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"
)

// MaxUploadSize is the default upload limit (15 MiB).
const MaxUploadSize int64 = 15 * 1024 * 1024

// AcceptedMediaTypes lists the declared types accepted by the upload surface.
var AcceptedMediaTypes = []string{
	"application/pdf",
	"application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	"application/msword",
	"text/plain",
	"image/jpeg",
	"image/jpg",
	"image/png",
	"image/gif",
	"image/bmp",
	"image/webp",
}

// AcceptedExtensions lists the file extensions accepted when the declared
// type is missing or generic.
var AcceptedExtensions = []string{
	".pdf", ".doc", ".docx", ".txt", ".jpg", ".jpeg", ".png", ".gif", ".bmp", ".webp",
}

// ValidateArtifact checks an upload against the size limit and the accepted
// types. maxSize <= 0 selects MaxUploadSize.
//
// Validation rules:
//   - Name must not be empty
//   - Size must not exceed maxSize
//   - Declared type must be accepted, or start with image/, or the file
//     extension must be accepted
//
// Rejections are *ValidationError values wrapping ErrInvalidArtifact and
// the specific cause.
func ValidateArtifact(artifact *Artifact, maxSize int64) error {
	if artifact == nil {
		return fmt.Errorf("%w: artifact is nil", ErrInvalidArtifact)
	}
	if maxSize <= 0 {
		maxSize = MaxUploadSize
	}

	if strings.TrimSpace(artifact.Name) == "" {
		return &ValidationError{
			Err:     fmt.Errorf("%w: %w", ErrInvalidArtifact, ErrEmptyFileName),
			Message: "The uploaded file has no name.",
		}
	}

	if artifact.Size() > maxSize {
		return TooLargeError(artifact.Size(), maxSize)
	}

	if !IsAcceptedType(artifact.MediaType, artifact.Name) {
		return &ValidationError{
			Err: fmt.Errorf("%w: %w", ErrInvalidArtifact, ErrUnsupportedType),
			Message: fmt.Sprintf("Unsupported file type: %s. Supported formats: PDF, DOCX, TXT, and images.",
				displayType(artifact.MediaType)),
		}
	}

	return nil
}

// TooLargeError is the rejection for an upload of size bytes over maxSize.
// A negative size means the upload was cut off before its size was known.
func TooLargeError(size, maxSize int64) *ValidationError {
	message := fmt.Sprintf("File size (%.2fMB) exceeds the %dMB limit.",
		float64(size)/1024/1024, maxSize/1024/1024)
	if size < 0 {
		message = fmt.Sprintf("File exceeds the %dMB limit.", maxSize/1024/1024)
	}
	return &ValidationError{
		Err:     fmt.Errorf("%w: %w", ErrInvalidArtifact, ErrFileTooLarge),
		Message: message,
	}
}

// IsAcceptedType reports whether an upload with the given declared type and
// name may enter the pipeline.
func IsAcceptedType(mediaType, name string) bool {
	mt := baseMediaType(mediaType)
	if slices.Contains(AcceptedMediaTypes, mt) || strings.HasPrefix(mt, "image/") {
		return true
	}
	return slices.Contains(AcceptedExtensions, strings.ToLower(filepath.Ext(name)))
}

// ValidateChat validates a Chat according to domain rules.
//
// Validation rules:
//   - A chat without a file must be complete with empty FullText
//   - Every message must be valid
//
// NOT validated:
//   - ID (0 is valid before the store assigns one)
func ValidateChat(chat *Chat) error {
	if chat == nil {
		return fmt.Errorf("%w: chat is nil", ErrInvalidChat)
	}

	if chat.File == nil && (!chat.ProcessingComplete || chat.FullText != "") {
		return fmt.Errorf("%w: chat without a file must be complete and empty", ErrInvalidChat)
	}

	for i := range chat.Messages {
		if err := ValidateMessage(&chat.Messages[i]); err != nil {
			return fmt.Errorf("%w: message %d: %w", ErrInvalidChat, i, err)
		}
	}

	return nil
}

// ValidateMessage validates a single conversation message.
func ValidateMessage(msg *Message) error {
	if msg == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}
	if err := ValidateSender(msg.Sender); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}
	if strings.TrimSpace(msg.Text) == "" {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}
	return nil
}

// ValidateSender validates that a Sender has a known value.
func ValidateSender(sender Sender) error {
	if sender != SenderUser && sender != SenderAI {
		return fmt.Errorf("%w: value %q", ErrInvalidSender, sender)
	}
	return nil
}

// TitleFromFileName derives a chat title from an uploaded file name.
// Names longer than 25 characters are cut to 22 followed by "...".
func TitleFromFileName(name string) string {
	r := []rune(name)
	if len(r) > 25 {
		return string(r[:22]) + "..."
	}
	return name
}

func baseMediaType(mediaType string) string {
	mt, _, _ := strings.Cut(mediaType, ";")
	return strings.ToLower(strings.TrimSpace(mt))
}

func displayType(mediaType string) string {
	if mediaType == "" {
		return "unknown"
	}
	return mediaType
}
