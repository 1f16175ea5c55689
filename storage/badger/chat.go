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


package badger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// ChatRepository implements storage.ChatRepository for BadgerDB.
type ChatRepository struct {
	backend *Backend
	idSeq   *badger.Sequence
}

var _ storage.ChatRepository = (*ChatRepository)(nil)

// NewChatRepository creates a new ChatRepository.
func NewChatRepository(backend *Backend) (*ChatRepository, error) {
	idSeq, err := backend.GetSequence(chatIDSeq)
	if err != nil {
		return nil, err
	}

	return &ChatRepository{
		backend: backend,
		idSeq:   idSeq,
	}, nil
}

// Close releases the ID sequence.
func (r *ChatRepository) Close() error {
	return r.idSeq.Release()
}

// CreateChat stores a new chat with a fresh ID.
func (r *ChatRepository) CreateChat(ctx context.Context, chat *core.Chat) (*core.Chat, error) {
	if err := core.ValidateChat(chat); err != nil {
		return nil, err
	}

	nextID, err := r.idSeq.Next()
	if err != nil {
		return nil, err
	}
	// BadgerDB sequences can return 0 on first call, so we skip it
	if nextID == 0 {
		nextID, err = r.idSeq.Next()
		if err != nil {
			return nil, err
		}
	}
	chat.Id = core.ID(nextID)
	chat.CreatedAt = time.Now().UTC()
	chat.UpdatedAt = chat.CreatedAt

	err = r.backend.Update(ctx, func(tx *badger.Txn) error {
		if err := tx.Set(makeChatKey(chat.Id), storage.MarshalChat(chat)); err != nil {
			return err
		}
		return tx.Set(makeChatCreatedKey(chat.CreatedAt, chat.Id), storage.MarshalID(chat.Id))
	})
	if err != nil {
		return nil, err
	}
	return chat, nil
}

// GetChat retrieves a single chat by ID.
func (r *ChatRepository) GetChat(ctx context.Context, id core.ID) (*core.Chat, error) {
	var result *core.Chat
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		var err error
		result, err = r.readChat(tx, id)
		if err != nil {
			return err
		}
		if result == nil {
			return storage.ErrNotFound
		}
		return nil
	}, false)
	return result, err
}

// ListChats returns chats newest first.
func (r *ChatRepository) ListChats(ctx context.Context, limit int) ([]*core.Chat, error) {
	return r.listCreated(ctx, nil, limit)
}

// ListChatsBefore returns up to limit chats older than cursor, newest first.
func (r *ChatRepository) ListChatsBefore(ctx context.Context, cursor *core.Chat, limit int) ([]*core.Chat, error) {
	if cursor == nil {
		return r.listCreated(ctx, nil, limit)
	}
	return r.listCreated(ctx, makeChatCreatedKey(cursor.CreatedAt, cursor.Id), limit)
}

// listCreated walks the creation-time index backwards from the newest chat,
// or from just below after when it is set.
func (r *ChatRepository) listCreated(ctx context.Context, after []byte, limit int) ([]*core.Chat, error) {
	var results []*core.Chat
	err := r.backend.WithTx(func(tx *badger.Txn) error {
		prefix := []byte(chatCreatedPrefix)
		opts := badger.DefaultIteratorOptions
		opts.Reverse = true
		opts.Prefix = prefix

		iter := tx.NewIterator(opts)
		defer iter.Close()

		// Seek past the last possible index key so the reverse walk starts at the newest chat
		seek := after
		if seek == nil {
			seek = append(bytes.Clone(prefix), bytes.Repeat([]byte{0xff}, 16)...)
		}
		for iter.Seek(seek); iter.ValidForPrefix(prefix); iter.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			if limit > 0 && len(results) >= limit {
				break
			}
			// The cursor itself belongs to the previous page
			if after != nil && bytes.Equal(iter.Item().Key(), after) {
				continue
			}

			var chatID core.ID
			if err := iter.Item().Value(func(val []byte) error {
				var err error
				chatID, err = storage.UnmarshalID(val)
				return err
			}); err != nil {
				return err
			}

			chat, err := r.readChat(tx, chatID)
			if err != nil {
				return err
			}
			if chat != nil {
				results = append(results, chat)
			}
		}
		return nil
	}, false)
	return results, err
}

// DeleteChat removes a chat and its index entry.
func (r *ChatRepository) DeleteChat(ctx context.Context, id core.ID) error {
	return r.backend.Update(ctx, func(tx *badger.Txn) error {
		chat, err := r.readChat(tx, id)
		if err != nil {
			return err
		}
		if chat == nil {
			return storage.ErrNotFound
		}
		if err := tx.Delete(makeChatCreatedKey(chat.CreatedAt, chat.Id)); err != nil {
			return err
		}
		return tx.Delete(makeChatKey(id))
	})
}

// RenameChat replaces the chat's title.
func (r *ChatRepository) RenameChat(ctx context.Context, id core.ID, title string) (*core.Chat, error) {
	return r.mutate(ctx, id, func(chat *core.Chat) error {
		chat.Title = title
		return nil
	})
}

// AppendMessages appends messages to the conversation.
func (r *ChatRepository) AppendMessages(ctx context.Context, id core.ID, messages ...core.Message) (*core.Chat, error) {
	for i := range messages {
		if err := core.ValidateMessage(&messages[i]); err != nil {
			return nil, err
		}
	}
	return r.mutate(ctx, id, func(chat *core.Chat) error {
		chat.Messages = append(chat.Messages, stampMessages(messages)...)
		return nil
	})
}

// EditMessage replaces a message's text and truncates everything after it.
func (r *ChatRepository) EditMessage(ctx context.Context, id core.ID, index int, text string) (*core.Chat, error) {
	return r.mutate(ctx, id, func(chat *core.Chat) error {
		if index < 0 || index >= len(chat.Messages) {
			return fmt.Errorf("%w: %d of %d", core.ErrMessageIndex, index, len(chat.Messages))
		}
		edited := chat.Messages[index]
		edited.Text = text
		edited.Timestamp = time.Now().UTC()
		if err := core.ValidateMessage(&edited); err != nil {
			return err
		}
		chat.Messages = append(chat.Messages[:index], edited)
		return nil
	})
}

// CompleteProcessing applies an extraction's terminal write.
func (r *ChatRepository) CompleteProcessing(ctx context.Context, id core.ID, completion core.Completion) (*core.Chat, error) {
	if err := core.ValidateMessage(&completion.Message); err != nil {
		return nil, err
	}
	return r.mutate(ctx, id, func(chat *core.Chat) error {
		if chat.File == nil || chat.ProcessingComplete {
			return storage.ErrAlreadySettled
		}
		if completion.File != nil {
			chat.File = completion.File
		}
		chat.FullText = completion.FullText
		chat.ProcessingComplete = true
		chat.ProcessingError = completion.Failed
		chat.Messages = append(chat.Messages, stampMessages([]core.Message{completion.Message})...)
		return nil
	})
}

// RemoveFile detaches the chat's file and resets its conversation.
func (r *ChatRepository) RemoveFile(ctx context.Context, id core.ID) (*core.Chat, error) {
	return r.mutate(ctx, id, func(chat *core.Chat) error {
		chat.File = nil
		chat.FullText = ""
		chat.ProcessingComplete = true
		chat.ProcessingError = false
		chat.Messages = nil
		return nil
	})
}

// Helper methods

// mutate reads a chat, applies fn and writes it back in one transaction.
// fn may run more than once when the commit conflicts.
func (r *ChatRepository) mutate(ctx context.Context, id core.ID, fn func(chat *core.Chat) error) (*core.Chat, error) {
	var result *core.Chat
	err := r.backend.Update(ctx, func(tx *badger.Txn) error {
		chat, err := r.readChat(tx, id)
		if err != nil {
			return err
		}
		if chat == nil {
			return storage.ErrNotFound
		}
		if err := fn(chat); err != nil {
			return err
		}
		chat.UpdatedAt = time.Now().UTC()
		if err := tx.Set(makeChatKey(id), storage.MarshalChat(chat)); err != nil {
			return err
		}
		result = chat
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// readChat reads a chat from the transaction.
// Returns nil, nil when the chat doesn't exist.
func (r *ChatRepository) readChat(tx *badger.Txn, id core.ID) (*core.Chat, error) {
	item, err := tx.Get(makeChatKey(id))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var chat *core.Chat
	err = item.Value(func(val []byte) error {
		var unmarshalErr error
		chat, unmarshalErr = storage.UnmarshalChat(val)
		return unmarshalErr
	})
	return chat, err
}

// stampMessages returns copies of messages with missing timestamps set to now.
func stampMessages(messages []core.Message) []core.Message {
	now := time.Now().UTC()
	out := make([]core.Message, len(messages))
	for i, m := range messages {
		if m.Timestamp.IsZero() {
			m.Timestamp = now
		}
		out[i] = m
	}
	return out
}
