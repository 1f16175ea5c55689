package ai

import "errors"

var (
	// ErrNoText indicates OCR found no readable text.
	ErrNoText = errors.New("no text recognized")

	// ErrEmptyResponse indicates the model returned no choices or blank content.
	ErrEmptyResponse = errors.New("empty model response")
)
