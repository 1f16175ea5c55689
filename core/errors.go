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

import "errors"

// Domain validation errors
var (
	// ErrInvalidArtifact indicates an uploaded artifact failed validation.
	ErrInvalidArtifact = errors.New("invalid artifact")

	// ErrFileTooLarge indicates the artifact exceeds the upload size limit.
	ErrFileTooLarge = errors.New("file too large")

	// ErrUnsupportedType indicates the artifact's declared type and extension are not accepted.
	ErrUnsupportedType = errors.New("unsupported file type")

	// ErrEmptyFileName indicates the artifact has no name.
	ErrEmptyFileName = errors.New("file name cannot be empty")

	// ErrInvalidChat indicates a Chat failed validation.
	ErrInvalidChat = errors.New("invalid chat")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidSender indicates an unknown Sender value.
	ErrInvalidSender = errors.New("invalid sender")

	// ErrEmptyContent indicates a message Text is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrMessageIndex indicates a message index outside the conversation.
	ErrMessageIndex = errors.New("message index out of range")
)

// ValidationError is returned when an upload is rejected before ingestion.
// Message is suitable for display to the user.
type ValidationError struct {
	Err     error
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
