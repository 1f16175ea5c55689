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


package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/analyzer"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/storage"
)

// DefaultMaxUploadSize is the largest artifact BeginIngestion accepts.
const DefaultMaxUploadSize = core.MaxUploadSize

// Pipeline orchestrates ingestion of uploaded files into chats.
// Extraction runs on a worker pool; each chat has at most one run.
type Pipeline struct {
	chatRepository storage.ChatRepository
	provider       ai.AIProvider
	registry       *extract.Registry
	pool           *ants.Pool
	maxUploadSize  int64
	timeout        time.Duration
	analyzerOpts   []analyzer.Option
	logger         *slog.Logger

	mu     sync.Mutex
	runs   map[core.ID]*run
	closed bool
	wg     sync.WaitGroup
}

// Option configures a Pipeline.
type Option func(*Pipeline) error

// WithPoolSize sets the worker pool size for concurrent extraction.
// Default is runtime.NumCPU() / 2, with a minimum of 1.
func WithPoolSize(size int) Option {
	return func(p *Pipeline) error {
		if size < 1 {
			size = 1
		}

		pool, err := ants.NewPool(size)
		if err != nil {
			return err
		}
		if p.pool != nil {
			p.pool.Release()
		}
		p.pool = pool
		return nil
	}
}

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(p *Pipeline) error {
		if logger == nil {
			logger = slog.Default()
		}
		p.logger = logger
		return nil
	}
}

// WithMaxUploadSize sets the largest accepted artifact in bytes.
// Default is 15 MiB.
func WithMaxUploadSize(size int64) Option {
	return func(p *Pipeline) error {
		if size <= 0 {
			return fmt.Errorf("max upload size must be positive, got %d", size)
		}
		p.maxUploadSize = size
		return nil
	}
}

// WithExtractionTimeout bounds a single extraction. Zero disables the bound.
func WithExtractionTimeout(timeout time.Duration) Option {
	return func(p *Pipeline) error {
		if timeout < 0 {
			return fmt.Errorf("extraction timeout cannot be negative, got %s", timeout)
		}
		p.timeout = timeout
		return nil
	}
}

// WithExtractor replaces the extractor used for format.
func WithExtractor(format extract.Format, extractor extract.Extractor) Option {
	return func(p *Pipeline) error {
		if extractor == nil {
			return fmt.Errorf("nil extractor for format %s", format)
		}
		p.registry.Register(format, extractor)
		return nil
	}
}

// WithAnalyzerOptions configures the image analyzer built from the provider.
// Ignored when WithExtractor supplies the image extractor.
func WithAnalyzerOptions(opts ...analyzer.Option) Option {
	return func(p *Pipeline) error {
		p.analyzerOpts = append(p.analyzerOpts, opts...)
		return nil
	}
}

// NewPipeline creates a new ingestion pipeline.
func NewPipeline(chatRepository storage.ChatRepository, provider ai.AIProvider, opts ...Option) (*Pipeline, error) {
	if chatRepository == nil {
		return nil, ErrChatRepositoryRequired
	}
	if provider == nil {
		return nil, ErrAIProviderRequired
	}

	// Default pool size
	poolSize := runtime.NumCPU() / 2
	if poolSize < 1 {
		poolSize = 1
	}

	pool, err := ants.NewPool(poolSize)
	if err != nil {
		return nil, err
	}

	p := &Pipeline{
		chatRepository: chatRepository,
		provider:       provider,
		registry:       extract.DefaultRegistry(),
		pool:           pool,
		maxUploadSize:  DefaultMaxUploadSize,
		logger:         slog.Default(),
		runs:           make(map[core.ID]*run),
	}

	// Apply options (may override defaults)
	for _, opt := range opts {
		if optErr := opt(p); optErr != nil {
			p.Release()
			return nil, optErr
		}
	}
	p.logger = p.logger.With("component", "ingestion")

	// The image analyzer is built after options so it sees the final logger
	if _, ok := p.registry.For(extract.FormatImage); !ok {
		analyzerOpts := append([]analyzer.Option{analyzer.WithLogger(p.logger)}, p.analyzerOpts...)
		imageAnalyzer, err := analyzer.NewFromProvider(provider, analyzerOpts...)
		if err != nil {
			p.Release()
			return nil, err
		}
		p.registry.Register(extract.FormatImage, imageAnalyzer)
	}

	return p, nil
}

// BeginIngestion validates artifact, creates a chat for it and schedules
// extraction in the background. It returns once the chat exists, before
// extraction starts. Oversized or unsupported artifacts are rejected with a
// *core.ValidationError and no chat is created.
func (p *Pipeline) BeginIngestion(ctx context.Context, artifact *core.Artifact) (core.ID, error) {
	if err := core.ValidateArtifact(artifact, p.maxUploadSize); err != nil {
		return 0, err
	}
	if p.isClosed() {
		return 0, ErrPipelineClosed
	}

	format := extract.Classify(artifact.MediaType, artifact.Name)
	file := &core.FileInfo{
		Name:         artifact.Name,
		MediaType:    artifact.MediaType,
		Size:         artifact.Size(),
		LastModified: artifact.LastModified,
		IsImage:      format == extract.FormatImage,
		Digest:       core.DigestFromContent(artifact.Data),
	}

	chat, err := p.chatRepository.CreateChat(ctx, &core.Chat{
		Title:    core.TitleFromFileName(artifact.Name),
		File:     file,
		FullText: placeholderText(artifact.Name),
		Messages: []core.Message{{Sender: core.SenderAI, Text: uploadNotice(format)}},
	})
	if err != nil {
		return 0, err
	}

	logger := p.logger.With("chat_id", chat.Id, "file", artifact.Name, "format", format)
	logger.Info("chat created for upload", "size", file.Size)

	// The artifact is shallow-copied; its bytes are never written to.
	snapshot := *artifact
	if err := p.schedule(chat.Id, format, file, &snapshot); err != nil {
		logger.Error("failed to schedule extraction", "err", err)
		p.settle(logger, chat.Id, completionFor(file, format, "", err))
	}
	return chat.Id, nil
}

// MaxUploadSize returns the largest artifact BeginIngestion accepts.
func (p *Pipeline) MaxUploadSize() int64 {
	return p.maxUploadSize
}

// CancelExtraction cancels the in-flight extraction for id, if any.
// A cancelled run never writes its result.
func (p *Pipeline) CancelExtraction(id core.ID) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.runs[id]
	if ok {
		r.cancel()
	}
	return ok
}

// DeleteChat cancels any in-flight extraction and deletes the chat.
func (p *Pipeline) DeleteChat(ctx context.Context, id core.ID) error {
	if p.CancelExtraction(id) {
		p.logger.Info("cancelled extraction for deleted chat", "chat_id", id)
	}
	return p.chatRepository.DeleteChat(ctx, id)
}

// RemoveFile cancels any in-flight extraction and detaches the chat's file,
// leaving an empty conversation.
func (p *Pipeline) RemoveFile(ctx context.Context, id core.ID) (*core.Chat, error) {
	if p.CancelExtraction(id) {
		p.logger.Info("cancelled extraction for removed file", "chat_id", id)
	}
	return p.chatRepository.RemoveFile(ctx, id)
}

// Status reports the in-flight extraction for id.
func (p *Pipeline) Status(id core.ID) (Run, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	r, ok := p.runs[id]
	if !ok {
		return Run{}, false
	}
	return r.snapshot(), true
}

// Runs lists every in-flight extraction.
func (p *Pipeline) Runs() []Run {
	p.mu.Lock()
	defer p.mu.Unlock()
	runs := make([]Run, 0, len(p.runs))
	for _, r := range p.runs {
		runs = append(runs, r.snapshot())
	}
	return runs
}

// Wait blocks until every scheduled extraction has settled.
func (p *Pipeline) Wait() {
	p.wg.Wait()
}

// Release stops accepting uploads, waits for in-flight extractions and
// releases the worker pool.
// The pipeline should not be used after calling Release.
func (p *Pipeline) Release() {
	p.mu.Lock()
	p.closed = true
	p.mu.Unlock()

	p.wg.Wait()
	if p.pool != nil {
		p.pool.Release()
	}
}

func (p *Pipeline) isClosed() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.closed
}
