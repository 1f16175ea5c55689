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


package search

import (
	"context"
	"log/slog"
	"sort"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

// titleWeight multiplies query word hits found in a chat's title.
const titleWeight = 3

// Searcher provides keyword search over chat records.
type Searcher struct {
	chatRepository storage.ChatRepository
	logger         *slog.Logger
}

// Option configures a Searcher.
type Option func(*Searcher) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) error {
		if logger == nil {
			logger = slog.Default()
		}
		s.logger = logger
		return nil
	}
}

// NewSearcher creates a new searcher.
func NewSearcher(chatRepository storage.ChatRepository, opts ...Option) (*Searcher, error) {
	if chatRepository == nil {
		return nil, ErrChatRepositoryRequired
	}

	s := &Searcher{
		chatRepository: chatRepository,
		logger:         slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}
	s.logger = s.logger.With("component", "searcher")

	return s, nil
}

// Find returns chats matching every word of query, best first.
// maxHits <= 0 returns all matches.
func (s *Searcher) Find(ctx context.Context, query string, maxHits int) ([]*core.SearchResult, error) {
	return s.FindWithMonitor(ctx, query, maxHits, nil)
}

// FindWithMonitor is Find with callbacks at each stage of the search.
func (s *Searcher) FindWithMonitor(ctx context.Context, query string, maxHits int, monitor SearchMonitor) ([]*core.SearchResult, error) {
	if monitor == nil {
		monitor = &noopMonitor{}
	}

	words := uniqueWords(tokenizeAndFilter(query))
	monitor.Start(query, words)
	if len(words) == 0 {
		return nil, ErrEmptyQuery
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	chats, err := s.chatRepository.ListChats(ctx, 0)
	if err != nil {
		s.logger.Error("error listing chats", "err", err)
		return nil, err
	}
	monitor.AfterChatRetrieval(chats)

	results := make([]*core.SearchResult, 0)
	for _, chat := range chats {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		score, ok := scoreChat(chat, words)
		if !ok {
			continue
		}
		monitor.Hit(chat, score)

		result := &core.SearchResult{Chat: chat, Score: score}
		if searchableText(chat) {
			result.Snippet = snippet(chat.FullText, words)
		}
		results = append(results, result)
	}

	// Chats arrive newest first; keep that order among equal scores
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	if maxHits > 0 && len(results) > maxHits {
		results = results[:maxHits]
	}

	s.logger.Debug("search complete", "query", query, "scanned", len(chats), "results", len(results))
	monitor.Finish(results)
	return results, nil
}

// scoreChat sums weighted hits for each word. It reports false unless every
// word occurs in the title or the searchable text.
func scoreChat(chat *core.Chat, words []string) (float32, bool) {
	titleHits := countHits(chat.Title, words)
	var textHits map[string]int
	if searchableText(chat) {
		textHits = countHits(chat.FullText, words)
	}

	var score float32
	for _, w := range words {
		n := titleWeight*titleHits[w] + textHits[w]
		if n == 0 {
			return 0, false
		}
		score += float32(n)
	}
	return score, true
}

// searchableText reports whether FullText holds extracted content rather
// than a placeholder or a failure reason.
func searchableText(chat *core.Chat) bool {
	return chat.File != nil && chat.ProcessingComplete && !chat.ProcessingError
}
