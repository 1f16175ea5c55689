package ingestion

import "errors"

var (
	// ErrChatRepositoryRequired is returned when a chat repository is not provided.
	ErrChatRepositoryRequired = errors.New("chat repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrPipelineClosed is returned when work is submitted after Release.
	ErrPipelineClosed = errors.New("pipeline closed")

	// ErrExtractionInFlight is returned when a chat already has a running extraction.
	ErrExtractionInFlight = errors.New("extraction already in flight")
)
