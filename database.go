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


package docent

import (
	"fmt"
	"log/slog"

	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/ai/openai"
	"github.com/poiesic/docent/ai/tesseract"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/search"
	"github.com/poiesic/docent/storage"
	"github.com/poiesic/docent/storage/badger"
)

// Database wires the chat store and the AI provider together and builds the
// ingestion pipeline and searcher on top of them.
type Database struct {
	backend  *badger.Backend
	chatRepo storage.ChatRepository
	provider ai.AIProvider
	logger   *slog.Logger
}

// DatabaseOption configures a Database.
type DatabaseOption func(*databaseOptions)

type databaseOptions struct {
	aiConfig *ai.Config
	provider ai.AIProvider
	inMemory bool
}

// WithAIConfig sets the configuration used to build the AI provider.
func WithAIConfig(config *ai.Config) DatabaseOption {
	return func(o *databaseOptions) {
		o.aiConfig = config
	}
}

// WithProvider uses provider instead of building one from the AI config.
// The database closes it on Close.
func WithProvider(provider ai.AIProvider) DatabaseOption {
	return func(o *databaseOptions) {
		o.provider = provider
	}
}

// WithInMemory keeps all data in memory; the path is ignored.
func WithInMemory() DatabaseOption {
	return func(o *databaseOptions) {
		o.inMemory = true
	}
}

func NewDatabase(filePath string, opts ...DatabaseOption) (*Database, error) {
	// Apply options
	options := &databaseOptions{
		aiConfig: ai.DefaultConfig(), // Default if not provided
	}
	for _, opt := range opts {
		opt(options)
	}

	// Build the provider first so a bad config leaves nothing open
	provider := options.provider
	if provider == nil {
		var err error
		provider, err = newProvider(options.aiConfig)
		if err != nil {
			return nil, err
		}
	}

	// Open backend
	path := filePath
	if options.inMemory {
		path = ""
	}
	backend, err := badger.OpenBackend(path, options.inMemory)
	if err != nil {
		provider.Close()
		return nil, err
	}

	// Create chat repository
	chatRepo, err := badger.NewChatRepository(backend)
	if err != nil {
		provider.Close()
		backend.Close()
		return nil, err
	}

	return &Database{
		backend:  backend,
		chatRepo: chatRepo,
		provider: provider,
		logger:   slog.Default().With("component", "database"),
	}, nil
}

// newProvider builds the OpenAI-compatible provider, backed by local
// Tesseract OCR when the config selects it.
func newProvider(config *ai.Config) (ai.AIProvider, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if config.OCRBackend != ai.OCRBackendTesseract {
		return openai.NewProvider(config)
	}

	recognizer, err := tesseract.NewRecognizer(config.OCRLanguage)
	if err != nil {
		return nil, fmt.Errorf("tesseract OCR backend: %w", err)
	}
	return openai.NewProvider(config, openai.WithRecognizer(recognizer))
}

func (db *Database) Close() error {
	// Close AI provider first
	if err := db.provider.Close(); err != nil {
		db.logger.Error("error closing AI provider", "err", err)
	}

	// Close repositories
	if err := db.chatRepo.Close(); err != nil {
		db.logger.Error("error closing chat repository", "err", err)
		return err
	}

	// Close backend
	if err := db.backend.Close(); err != nil {
		db.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

func (db *Database) ChatRepository() storage.ChatRepository {
	return db.chatRepo
}

func (db *Database) Provider() ai.AIProvider {
	return db.provider
}

func (db *Database) NewIngestionPipeline(opts ...ingestion.Option) (*ingestion.Pipeline, error) {
	return ingestion.NewPipeline(db.chatRepo, db.provider, opts...)
}

func (db *Database) NewSearcher(opts ...search.Option) (*search.Searcher, error) {
	return search.NewSearcher(db.chatRepo, opts...)
}
