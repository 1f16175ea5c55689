package storage

import (
	"context"

	"github.com/poiesic/docent/core"
)

// ChatRepository provides operations for managing chats.
// Implementations must be thread-safe and support concurrent access.
//
// Every mutation is a field-level update applied inside a single
// transaction. No operation overwrites a chat wholesale, so concurrent
// writers touching different fields never clobber each other.
type ChatRepository interface {
	// CreateChat stores a new chat.
	// Generates a new ID from the sequence and sets CreatedAt/UpdatedAt.
	// Returns the chat with its ID and timestamps populated.
	CreateChat(ctx context.Context, chat *core.Chat) (*core.Chat, error)

	// GetChat retrieves a single chat by ID.
	// Returns ErrNotFound if the chat doesn't exist.
	GetChat(ctx context.Context, id core.ID) (*core.Chat, error)

	// ListChats returns chats ordered by creation time, newest first.
	// limit <= 0 returns all chats.
	ListChats(ctx context.Context, limit int) ([]*core.Chat, error)

	// ListChatsBefore returns up to limit chats created before cursor,
	// newest first. A nil cursor starts at the newest chat. Passing the last
	// chat of each page as the next cursor visits every chat once.
	ListChatsBefore(ctx context.Context, cursor *core.Chat, limit int) ([]*core.Chat, error)

	// DeleteChat removes a chat and its index entries.
	// Returns ErrNotFound if the chat doesn't exist.
	DeleteChat(ctx context.Context, id core.ID) error

	// RenameChat replaces the chat's title.
	// Returns ErrNotFound if the chat doesn't exist.
	RenameChat(ctx context.Context, id core.ID, title string) (*core.Chat, error)

	// AppendMessages appends messages to the end of the conversation.
	// Returns ErrNotFound if the chat doesn't exist.
	AppendMessages(ctx context.Context, id core.ID, messages ...core.Message) (*core.Chat, error)

	// EditMessage replaces the text of the message at index and drops every
	// later message. Returns core.ErrMessageIndex for an out-of-range index.
	EditMessage(ctx context.Context, id core.ID, index int, text string) (*core.Chat, error)

	// CompleteProcessing applies the terminal write of an extraction.
	// Only File, FullText, ProcessingComplete and ProcessingError are
	// replaced; the completion message is appended.
	// Returns ErrNotFound if the chat was deleted and ErrAlreadySettled if
	// the chat has no file or is already complete.
	CompleteProcessing(ctx context.Context, id core.ID, completion core.Completion) (*core.Chat, error)

	// RemoveFile detaches the chat's file: File becomes nil, FullText empty,
	// ProcessingComplete true, ProcessingError false and messages cleared.
	// Returns ErrNotFound if the chat doesn't exist.
	RemoveFile(ctx context.Context, id core.ID) (*core.Chat, error)

	// Close releases resources held by the repository.
	Close() error
}
