package ai

import "context"

// ImageDescriber produces a natural-language description of an image.
type ImageDescriber interface {
	// DescribeImage sends the image to a vision-capable model and returns a
	// comprehensive description of its objects, people, visible text,
	// colors, setting and activities.
	// Returns an error if the remote call fails or yields nothing.
	DescribeImage(ctx context.Context, image []byte, mediaType string) (string, error)
}

// TextRecognizer performs optical character recognition.
type TextRecognizer interface {
	// RecognizeText returns the text visible in the image.
	// Returns ErrNoText if the image contains no readable text.
	RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error)
}

// AIProvider provides access to the image analysis services.
// Implementations must be safe for concurrent use.
type AIProvider interface {
	// Describer returns the vision-description service.
	Describer() ImageDescriber

	// Recognizer returns the OCR service.
	Recognizer() TextRecognizer

	// Close releases resources held by the provider and its services.
	// After Close is called, the provider and its services should not be used.
	Close() error
}
