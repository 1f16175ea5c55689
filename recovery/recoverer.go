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
	"fmt"
	"io"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

type Config struct {
	// BatchSize is the number of chats to settle in each batch
	BatchSize int

	// ReportInterval is how often to report progress (number of chats)
	ReportInterval int

	// MaxRetries is the maximum number of attempts per chat
	MaxRetries int

	// RetryDelay is the base delay for exponential backoff
	RetryDelay time.Duration
}

func DefaultConfig() *Config {
	return &Config{
		BatchSize:      DefaultBatchSize,
		ReportInterval: 10,
		MaxRetries:     3,
		RetryDelay:     100 * time.Millisecond,
	}
}

// Validate checks that every field is usable.
func (c *Config) Validate() error {
	if c.BatchSize <= 0 {
		return fmt.Errorf("batch-size must be greater than 0")
	}
	if c.ReportInterval <= 0 {
		return fmt.Errorf("report-interval must be greater than 0")
	}
	if c.MaxRetries <= 0 {
		return fmt.Errorf("max-retries must be greater than 0")
	}
	return nil
}

// Summary reports what a Run did.
type Summary struct {
	Stale   int
	Settled int
	Elapsed time.Duration
}

// Recoverer settles every stale chat in a repository.
type Recoverer struct {
	config    *Config
	progress  io.Writer
	processor *BatchSettler
	iterator  *ChatIterator
}

// NewRecoverer creates a recoverer writing progress to progress.
// A nil config selects DefaultConfig; a nil writer discards progress.
func NewRecoverer(repo storage.ChatRepository, config *Config, progress io.Writer) *Recoverer {
	if config == nil {
		config = DefaultConfig()
	}
	if progress == nil {
		progress = io.Discard
	}

	return &Recoverer{
		config:    config,
		progress:  progress,
		processor: NewBatchSettler(repo, config.MaxRetries, config.RetryDelay),
		iterator:  NewChatIterator(repo, config.BatchSize, Stale),
	}
}

func (r *Recoverer) Run(ctx context.Context) (Summary, error) {
	if err := r.config.Validate(); err != nil {
		return Summary{}, err
	}

	stale, err := r.iterator.Count(ctx)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to query chats: %w", err)
	}

	summary := Summary{Stale: stale}
	if summary.Stale == 0 {
		fmt.Fprintf(r.progress, "No interrupted chats found\n")
		return summary, nil
	}

	fmt.Fprintf(r.progress, "Settling %d interrupted chats\n", summary.Stale)

	tracker := NewProgressTracker(r.progress, summary.Stale, r.config.ReportInterval)
	tracker.Start()

	err = r.iterator.ForEach(ctx, func(chats []*core.Chat) error {
		settled, err := r.processor.Process(ctx, chats)
		summary.Settled += settled
		tracker.Add(len(chats))
		return err
	})
	summary.Elapsed = tracker.Elapsed()
	if err != nil {
		return summary, err
	}

	tracker.Finish()
	fmt.Fprintf(r.progress, "Recovery complete. Settled %d of %d chats in %v\n",
		summary.Settled, summary.Stale, summary.Elapsed.Round(time.Millisecond))

	return summary, nil
}
