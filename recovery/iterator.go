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


package recovery

import (
	"context"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

const (
	// DefaultBatchSize is the default number of chats handed to each batch
	DefaultBatchSize = 100
)

// ChatIterator walks stored chats newest first, reading one page of at
// most batchSize chats at a time.
type ChatIterator struct {
	repo      storage.ChatRepository
	batchSize int
	filter    func(*core.Chat) bool
}

// NewChatIterator creates an iterator over every chat accepted by filter.
// A nil filter accepts all chats.
func NewChatIterator(repo storage.ChatRepository, batchSize int, filter func(*core.Chat) bool) *ChatIterator {
	if batchSize <= 0 {
		batchSize = DefaultBatchSize
	}

	return &ChatIterator{
		repo:      repo,
		batchSize: batchSize,
		filter:    filter,
	}
}

// ForEach calls fn with successive batches of accepted chats. Each batch
// comes from one page of at most batchSize chats read from the repository,
// so a filter may leave a batch smaller than batchSize. Pages that match
// nothing are skipped.
func (it *ChatIterator) ForEach(ctx context.Context, fn func([]*core.Chat) error) error {
	var cursor *core.Chat
	for {
		// Check context before each page
		if err := ctx.Err(); err != nil {
			return err
		}

		page, err := it.repo.ListChatsBefore(ctx, cursor, it.batchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			return nil
		}
		cursor = page[len(page)-1]

		if batch := it.accept(page); len(batch) > 0 {
			if err := fn(batch); err != nil {
				return err
			}
		}

		if len(page) < it.batchSize {
			return nil
		}
	}
}

// Collect returns every chat accepted by the filter.
func (it *ChatIterator) Collect(ctx context.Context) ([]*core.Chat, error) {
	var chats []*core.Chat
	err := it.ForEach(ctx, func(batch []*core.Chat) error {
		chats = append(chats, batch...)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return chats, nil
}

// Count returns the number of chats accepted by the filter without holding
// more than one page in memory.
func (it *ChatIterator) Count(ctx context.Context) (int, error) {
	count := 0
	err := it.ForEach(ctx, func(batch []*core.Chat) error {
		count += len(batch)
		return nil
	})
	return count, err
}

func (it *ChatIterator) accept(page []*core.Chat) []*core.Chat {
	if it.filter == nil {
		return page
	}
	matched := page[:0]
	for _, chat := range page {
		if it.filter(chat) {
			matched = append(matched, chat)
		}
	}
	return matched
}

// Stale reports whether chat is waiting on an extraction.
func Stale(chat *core.Chat) bool {
	return chat.Processing()
}
