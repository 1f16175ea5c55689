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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/avast/retry-go/v4"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/storage"
)

// BatchSettler applies the interrupted-extraction write to chats.
type BatchSettler struct {
	repo           storage.ChatRepository
	maxRetries     int
	retryBaseDelay time.Duration
	logger         *slog.Logger
}

// NewBatchSettler creates a settler that retries each write up to maxRetries
// times with exponential backoff starting at retryBaseDelay.
func NewBatchSettler(repo storage.ChatRepository, maxRetries int, retryBaseDelay time.Duration) *BatchSettler {
	// retry-go treats zero attempts as unlimited
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &BatchSettler{
		repo:           repo,
		maxRetries:     maxRetries,
		retryBaseDelay: retryBaseDelay,
		logger:         slog.Default().With("component", "recovery"),
	}
}

// Process settles every chat in chats and returns how many it settled.
// Chats deleted or settled since they were read are skipped.
func (bs *BatchSettler) Process(ctx context.Context, chats []*core.Chat) (int, error) {
	settled := 0
	for _, chat := range chats {
		if chat.File == nil {
			continue
		}

		err := retry.Do(
			func() error {
				_, err := bs.repo.CompleteProcessing(ctx, chat.Id, ingestion.InterruptedCompletion(chat.File))
				if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrAlreadySettled) {
					return retry.Unrecoverable(err)
				}
				return err
			},
			retry.Context(ctx),
			retry.Attempts(uint(bs.maxRetries)),
			retry.Delay(bs.retryBaseDelay),
			retry.DelayType(retry.BackOffDelay),
			retry.LastErrorOnly(true),
		)
		switch {
		case err == nil:
			settled++
			bs.logger.Info("settled interrupted chat", "chat_id", chat.Id, "file", chat.File.Name)
		case errors.Is(err, storage.ErrNotFound), errors.Is(err, storage.ErrAlreadySettled):
			bs.logger.Debug("chat changed before it could be settled", "chat_id", chat.Id, "err", err)
		default:
			return settled, fmt.Errorf("failed to settle chat %d after %d attempts: %w", chat.Id, bs.maxRetries, err)
		}
	}
	return settled, nil
}
