// Package mock provides test double implementations of AI service interfaces.
//
// This package contains mock implementations of ai.ImageDescriber,
// ai.TextRecognizer and ai.AIProvider for use in unit tests. The mocks allow
// tests to run without a vision endpoint or a Tesseract install.
//
// # Usage in Tests
//
//	// Basic usage with default behavior
//	mockProvider := mock.NewMockProvider()
//	description, err := mockProvider.Describer().DescribeImage(ctx, data, "image/png")
//
//	// Custom behavior injection
//	recognizer := mock.NewMockRecognizer().WithText("INVOICE #123")
//	describer := mock.NewMockDescriber().
//	    WithDescribeImageFunc(func(ctx context.Context, image []byte, mediaType string) (string, error) {
//	        return "", errors.New("connection refused")
//	    })
//
//	// Check call counts
//	count := describer.CallCount()
//
// # Default Behavior
//
//   - MockDescriber: Returns a fixed description naming the media type and size
//   - MockRecognizer: Reports ai.ErrNoText
//   - MockProvider: Aggregates mock describer and recognizer
package mock
