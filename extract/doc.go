// Package extract turns uploaded artifacts into plain text.
//
// Classify routes an artifact to one of five formats by declared media type
// and file name. Each format has an Extractor; a Registry maps formats to
// extractors so callers can swap any of them. Images are not handled here:
// the analyzer package provides the image Extractor.
//
// Extractors return *ExtractionError for malformed input. The Message field
// carries the explanation shown to the user.
package extract
