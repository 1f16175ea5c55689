package ai

// OCR backends selectable through Config.OCRBackend.
const (
	// OCRBackendVision transcribes text with the OCR model over the chat API.
	OCRBackendVision = "vision"

	// OCRBackendTesseract runs Tesseract locally. Requires the tesseract build tag.
	OCRBackendTesseract = "tesseract"
)

// OCRBackends lists the valid OCR backends.
var OCRBackends = []string{OCRBackendVision, OCRBackendTesseract}
