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
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/storage"
)

// Run describes an in-flight extraction.
type Run struct {
	ID        string
	ChatID    core.ID
	FileName  string
	Format    extract.Format
	StartedAt time.Time
}

// run is the pipeline's bookkeeping for one extraction.
// ctx is the run's cancellation token.
type run struct {
	Run
	file   *core.FileInfo
	ctx    context.Context
	cancel context.CancelFunc
}

func (r *run) snapshot() Run {
	return r.Run
}

// schedule registers a run for chatID and submits it to the pool.
func (p *Pipeline) schedule(chatID core.ID, format extract.Format, file *core.FileInfo, artifact *core.Artifact) error {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if p.timeout > 0 {
		ctx, cancel = context.WithTimeout(context.Background(), p.timeout)
	} else {
		ctx, cancel = context.WithCancel(context.Background())
	}
	r := &run{
		Run: Run{
			ID:        uuid.NewString(),
			ChatID:    chatID,
			FileName:  file.Name,
			Format:    format,
			StartedAt: time.Now().UTC(),
		},
		file:   file,
		ctx:    ctx,
		cancel: cancel,
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		cancel()
		return ErrPipelineClosed
	}
	if _, ok := p.runs[chatID]; ok {
		p.mu.Unlock()
		cancel()
		return ErrExtractionInFlight
	}
	p.runs[chatID] = r
	p.wg.Add(1)
	p.mu.Unlock()

	// Submit blocks while every worker is busy; the caller must not wait on it.
	go p.submit(r, artifact)
	return nil
}

// submit hands r to the pool. The run stays registered, and counted by
// Wait, while it is queued.
func (p *Pipeline) submit(r *run, artifact *core.Artifact) {
	err := p.pool.Submit(func() { p.runExtraction(r, artifact) })
	if err == nil {
		return
	}

	logger := p.logger.With("chat_id", r.ChatID, "run_id", r.ID, "format", r.Format)
	logger.Error("failed to submit extraction", "err", err)
	if !errors.Is(r.ctx.Err(), context.Canceled) {
		p.settle(logger, r.ChatID, completionFor(r.file, r.Format, "", fmt.Errorf("submitting extraction: %w", err)))
	}
	p.finish(r)
}

// runExtraction runs the extractor for r and applies the terminal write,
// unless the run was cancelled.
func (p *Pipeline) runExtraction(r *run, artifact *core.Artifact) {
	defer p.finish(r)

	logger := p.logger.With("chat_id", r.ChatID, "run_id", r.ID, "format", r.Format)
	logger.Debug("extraction started")

	var (
		text string
		err  error
	)
	// A run cancelled or timed out while queued never reaches its extractor
	if err = r.ctx.Err(); err == nil {
		text, err = p.extract(r, artifact)
	}
	if errors.Is(r.ctx.Err(), context.Canceled) {
		logger.Info("extraction cancelled, result dropped")
		return
	}
	if err != nil {
		logger.Warn("extraction failed", "err", err, "elapsed", time.Since(r.StartedAt))
	} else {
		logger.Info("extraction finished", "chars", len(text), "elapsed", time.Since(r.StartedAt))
	}

	p.settle(logger, r.ChatID, completionFor(r.file, r.Format, text, err))
}

func (p *Pipeline) extract(r *run, artifact *core.Artifact) (text string, err error) {
	extractor, ok := p.registry.For(r.Format)
	if !ok {
		return "", fmt.Errorf("no extractor registered for %s", r.Format)
	}

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("extractor panicked: %v", rec)
		}
	}()

	text, err = extractor.Extract(r.ctx, artifact)
	if err == nil && r.ctx.Err() != nil {
		// A result that arrives after the deadline still counts as a timeout.
		err = r.ctx.Err()
	}
	return text, err
}

// settle applies the terminal write. The write is conditional in the store:
// a deleted chat or a removed file makes it a no-op.
func (p *Pipeline) settle(logger *slog.Logger, chatID core.ID, completion core.Completion) {
	_, err := p.chatRepository.CompleteProcessing(context.Background(), chatID, completion)
	switch {
	case err == nil:
		logger.Debug("chat settled", "failed", completion.Failed)
	case errors.Is(err, storage.ErrNotFound):
		logger.Info("chat deleted before extraction settled, result dropped")
	case errors.Is(err, storage.ErrAlreadySettled):
		logger.Info("chat already settled, result dropped")
	default:
		logger.Error("failed to write extraction result", "err", err)
	}
}

func (p *Pipeline) finish(r *run) {
	r.cancel()
	p.mu.Lock()
	if p.runs[r.ChatID] == r {
		delete(p.runs, r.ChatID)
	}
	p.mu.Unlock()
	p.wg.Done()
}
