// Package ingestion turns uploaded files into chats.
//
// BeginIngestion validates an artifact, synchronously creates a chat showing
// a placeholder and an upload notice, and returns the chat's ID. Extraction
// then runs on a worker pool and settles the chat with exactly one terminal
// write: the extracted text on success, or a user-facing explanation on
// failure. Deleting a chat or removing its file cancels the extraction and
// its result is dropped.
package ingestion
