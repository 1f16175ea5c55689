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


package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/poiesic/docent/analyzer"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/httpapi"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/recovery"
	"github.com/poiesic/docent/search"
	"github.com/urfave/cli/v2"
)

func ingestCommand() *cli.Command {
	return &cli.Command{
		Name:      "ingest",
		Usage:     "Create a chat for each file and extract its text",
		ArgsUsage: "FILE...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of files extracted concurrently (0 picks a default)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up on a single extraction after this long (0 disables)",
			},
		},
		Action: ingestAction,
	}
}

func ingestAction(c *cli.Context) error {
	if c.NArg() == 0 {
		return fmt.Errorf("at least one file is required")
	}
	ctx := c.Context

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	opts := []ingestion.Option{ingestion.WithExtractionTimeout(c.Duration("timeout"))}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	var ids []core.ID
	for _, path := range c.Args().Slice() {
		artifact, err := readArtifact(path)
		var id core.ID
		if err == nil {
			id, err = pipeline.BeginIngestion(ctx, artifact)
		}
		if err != nil {
			var validationErr *core.ValidationError
			if errors.As(err, &validationErr) {
				fmt.Fprintf(c.App.ErrWriter, "%s: %s\n", path, validationErr.Message)
				continue
			}
			return fmt.Errorf("failed to ingest %s: %w", path, err)
		}
		fmt.Fprintf(c.App.ErrWriter, "%s: chat %d created, processing\n", path, id)
		ids = append(ids, id)
	}

	pipeline.Wait()

	w := newTable(c.App.Writer)
	fmt.Fprintln(w, "ID\tTITLE\tSTATUS\tCHARS")
	for _, id := range ids {
		chat, err := db.ChatRepository().GetChat(ctx, id)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%d\n", chat.Id, chat.Title, status(chat), len(chat.FullText))
	}
	return w.Flush()
}

func listCommand() *cli.Command {
	return &cli.Command{
		Name:  "list",
		Usage: "List chats, newest first",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of chats to list (0 lists all)",
				Value: 20,
			},
		},
		Action: func(c *cli.Context) error {
			db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			chats, err := db.ChatRepository().ListChats(c.Context, c.Int("limit"))
			if err != nil {
				return err
			}

			w := newTable(c.App.Writer)
			fmt.Fprintln(w, "ID\tTITLE\tFILE\tSTATUS\tCREATED")
			for _, chat := range chats {
				file := "-"
				if chat.File != nil {
					file = chat.File.Name
				}
				fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
					chat.Id, chat.Title, file, status(chat), chat.CreatedAt.Local().Format(time.DateTime))
			}
			return w.Flush()
		},
	}
}

func showCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show a chat's file, extracted text and conversation",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			id, err := chatIDArg(c)
			if err != nil {
				return err
			}
			db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			chat, err := db.ChatRepository().GetChat(c.Context, id)
			if err != nil {
				return err
			}

			out := c.App.Writer
			fmt.Fprintf(out, "Chat %d: %s (%s)\n", chat.Id, chat.Title, status(chat))
			if chat.File != nil {
				fmt.Fprintf(out, "File: %s, %s, %d bytes, digest %s\n",
					chat.File.Name, chat.File.MediaType, chat.File.Size, chat.File.Digest)
			}
			if chat.FullText != "" {
				fmt.Fprintf(out, "\n%s\n", chat.FullText)
			}
			if len(chat.Messages) > 0 {
				fmt.Fprintln(out)
			}
			for i, m := range chat.Messages {
				fmt.Fprintf(out, "[%d] %s: %s\n", i, m.Sender, m.Text)
			}
			return nil
		},
	}
}

func renameCommand() *cli.Command {
	return &cli.Command{
		Name:      "rename",
		Usage:     "Rename a chat",
		ArgsUsage: "ID TITLE",
		Action: func(c *cli.Context) error {
			id, err := chatIDArg(c)
			if err != nil {
				return err
			}
			title := strings.Join(c.Args().Tail(), " ")
			if title == "" {
				return fmt.Errorf("a title is required")
			}
			db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			chat, err := db.ChatRepository().RenameChat(c.Context, id, title)
			if err != nil {
				return err
			}
			fmt.Fprintf(c.App.Writer, "Chat %d renamed to %q\n", chat.Id, chat.Title)
			return nil
		},
	}
}

func deleteCommand() *cli.Command {
	return &cli.Command{
		Name:      "delete",
		Usage:     "Delete a chat",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			return withPipeline(c, func(pipeline *ingestion.Pipeline, id core.ID) error {
				if err := pipeline.DeleteChat(c.Context, id); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "Chat %d deleted\n", id)
				return nil
			})
		},
	}
}

func removeFileCommand() *cli.Command {
	return &cli.Command{
		Name:      "remove-file",
		Usage:     "Detach a chat's file and clear its conversation",
		ArgsUsage: "ID",
		Action: func(c *cli.Context) error {
			return withPipeline(c, func(pipeline *ingestion.Pipeline, id core.ID) error {
				if _, err := pipeline.RemoveFile(c.Context, id); err != nil {
					return err
				}
				fmt.Fprintf(c.App.Writer, "File removed from chat %d\n", id)
				return nil
			})
		},
	}
}

func searchCommand() *cli.Command {
	return &cli.Command{
		Name:      "search",
		Usage:     "Find chats whose title or text contains every query word",
		ArgsUsage: "QUERY...",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "limit",
				Usage: "Maximum number of results",
				Value: 10,
			},
			&cli.BoolFlag{
				Name:  "explain",
				Usage: "Print how the query was matched",
			},
		},
		Action: func(c *cli.Context) error {
			query := strings.Join(c.Args().Slice(), " ")
			db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			searcher, err := db.NewSearcher()
			if err != nil {
				return err
			}

			var monitor search.SearchMonitor
			if c.Bool("explain") {
				monitor = &explainMonitor{w: c.App.ErrWriter}
			}
			results, err := searcher.FindWithMonitor(c.Context, query, c.Int("limit"), monitor)
			if err != nil {
				return err
			}
			if len(results) == 0 {
				fmt.Fprintln(c.App.Writer, "No matching chats")
				return nil
			}

			for _, r := range results {
				fmt.Fprintf(c.App.Writer, "%d\t%s\t(score %.0f)\n", r.Chat.Id, r.Chat.Title, r.Score)
				if r.Snippet != "" {
					fmt.Fprintf(c.App.Writer, "\t%s\n", r.Snippet)
				}
			}
			return nil
		},
	}
}

// explainMonitor prints each search stage.
type explainMonitor struct {
	w io.Writer
}

func (m *explainMonitor) Start(query string, words []string) {
	fmt.Fprintf(m.w, "query %q -> words %v\n", query, words)
}

func (m *explainMonitor) AfterChatRetrieval(chats []*core.Chat) {
	fmt.Fprintf(m.w, "scanning %d chats\n", len(chats))
}

func (m *explainMonitor) Hit(chat *core.Chat, score float32) {
	fmt.Fprintf(m.w, "hit chat %d %q score %.0f\n", chat.Id, chat.Title, score)
}

func (m *explainMonitor) Finish(results []*core.SearchResult) {
	fmt.Fprintf(m.w, "%d results\n", len(results))
}

func classifyCommand() *cli.Command {
	return &cli.Command{
		Name:      "classify",
		Usage:     "Print the detected media type and extraction format of files",
		ArgsUsage: "FILE...",
		Action: func(c *cli.Context) error {
			if c.NArg() == 0 {
				return fmt.Errorf("at least one file is required")
			}
			w := newTable(c.App.Writer)
			fmt.Fprintln(w, "FILE\tTYPE\tFORMAT\tACCEPTED")
			for _, path := range c.Args().Slice() {
				artifact, err := readArtifact(path)
				var validationErr *core.ValidationError
				if errors.As(err, &validationErr) {
					fmt.Fprintf(w, "%s\t-\t-\tfalse\n", path)
					continue
				}
				if err != nil {
					return err
				}
				format := extract.Classify(artifact.MediaType, artifact.Name)
				accepted := core.ValidateArtifact(artifact, 0) == nil
				fmt.Fprintf(w, "%s\t%s\t%s\t%t\n", path, artifact.MediaType, format, accepted)
			}
			return w.Flush()
		},
	}
}

func extractCommand() *cli.Command {
	return &cli.Command{
		Name:      "extract",
		Usage:     "Extract and print a file's text without storing it",
		ArgsUsage: "FILE",
		Action: func(c *cli.Context) error {
			if c.NArg() != 1 {
				return fmt.Errorf("exactly one file is required")
			}
			artifact, err := readArtifact(c.Args().First())
			if err != nil {
				return err
			}
			if err := core.ValidateArtifact(artifact, 0); err != nil {
				return err
			}

			registry := extract.DefaultRegistry()
			format := extract.Classify(artifact.MediaType, artifact.Name)
			if format == extract.FormatImage {
				db, err := openDatabase(c)
				if err != nil {
					return err
				}
				defer db.Close()
				imageAnalyzer, err := analyzer.NewFromProvider(db.Provider())
				if err != nil {
					return err
				}
				registry.Register(extract.FormatImage, imageAnalyzer)
			}

			extractor, ok := registry.For(format)
			if !ok {
				return fmt.Errorf("no extractor for %s", format)
			}
			text, err := extractor.Extract(c.Context, artifact)
			if err != nil {
				return err
			}
			fmt.Fprintln(c.App.Writer, text)
			return nil
		},
	}
}

func recoverCommand() *cli.Command {
	return &cli.Command{
		Name:  "recover",
		Usage: "Mark chats left processing by an interrupted run as failed",
		Flags: []cli.Flag{
			&cli.IntFlag{
				Name:  "batch-size",
				Usage: "Number of chats to settle in each batch",
				Value: recovery.DefaultBatchSize,
			},
			&cli.IntFlag{
				Name:  "report-interval",
				Usage: "Report progress every N chats",
				Value: 10,
			},
			&cli.IntFlag{
				Name:  "max-retries",
				Usage: "Maximum attempts per chat",
				Value: 3,
			},
		},
		Action: func(c *cli.Context) error {
			db, err := openDatabase(c)
			if err != nil {
				return err
			}
			defer db.Close()

			config := recovery.DefaultConfig()
			config.BatchSize = c.Int("batch-size")
			config.ReportInterval = c.Int("report-interval")
			config.MaxRetries = c.Int("max-retries")

			_, err = recovery.NewRecoverer(db.ChatRepository(), config, c.App.ErrWriter).Run(c.Context)
			return err
		},
	}
}

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "addr",
				Usage:   "Listen address",
				Value:   ":8080",
				EnvVars: []string{"DOCENT_ADDR"},
			},
			&cli.IntFlag{
				Name:  "pool-size",
				Usage: "Number of files extracted concurrently (0 picks a default)",
			},
			&cli.DurationFlag{
				Name:  "timeout",
				Usage: "Give up on a single extraction after this long (0 disables)",
				Value: 5 * time.Minute,
			},
		},
		Action: serveAction,
	}
}

func serveAction(c *cli.Context) error {
	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	// Nothing else can hold the database, so every processing chat is stale
	if _, err := recovery.NewRecoverer(db.ChatRepository(), nil, nil).Run(ctx); err != nil {
		return fmt.Errorf("failed to recover interrupted chats: %w", err)
	}

	opts := []ingestion.Option{ingestion.WithExtractionTimeout(c.Duration("timeout"))}
	if size := c.Int("pool-size"); size > 0 {
		opts = append(opts, ingestion.WithPoolSize(size))
	}
	pipeline, err := db.NewIngestionPipeline(opts...)
	if err != nil {
		return fmt.Errorf("failed to create pipeline: %w", err)
	}
	defer pipeline.Release()

	searcher, err := db.NewSearcher()
	if err != nil {
		return err
	}

	server := &http.Server{
		Addr:              c.String("addr"),
		Handler:           httpapi.NewRouter(httpapi.NewAPI(pipeline, db.ChatRepository(), searcher)),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		fmt.Fprintf(c.App.ErrWriter, "Listening on %s\n", server.Addr)
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return err
		}
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// withPipeline opens the database, builds a pipeline and calls fn with the
// chat ID argument.
func withPipeline(c *cli.Context, fn func(*ingestion.Pipeline, core.ID) error) error {
	id, err := chatIDArg(c)
	if err != nil {
		return err
	}
	db, err := openDatabase(c)
	if err != nil {
		return err
	}
	defer db.Close()

	pipeline, err := db.NewIngestionPipeline()
	if err != nil {
		return err
	}
	defer pipeline.Release()
	return fn(pipeline, id)
}

func chatIDArg(c *cli.Context) (core.ID, error) {
	if c.NArg() < 1 {
		return 0, fmt.Errorf("a chat ID is required")
	}
	id, err := core.ParseID(c.Args().First())
	if err != nil {
		return 0, fmt.Errorf("invalid chat ID %q", c.Args().First())
	}
	return id, nil
}

// readArtifact reads a file from disk, sniffing its media type. Files over
// the upload limit are rejected before any of their content is read.
func readArtifact(path string) (*core.Artifact, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%s is a directory", path)
	}
	if info.Size() > core.MaxUploadSize {
		return nil, core.TooLargeError(info.Size(), core.MaxUploadSize)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	name := filepath.Base(path)
	return &core.Artifact{
		Name:         name,
		MediaType:    extract.SniffMediaType(name, data),
		Data:         data,
		LastModified: info.ModTime().UTC(),
	}, nil
}

func status(chat *core.Chat) string {
	switch {
	case chat.Processing():
		return "processing"
	case chat.ProcessingError:
		return "failed"
	case chat.File == nil:
		return "empty"
	default:
		return "ready"
	}
}

func newTable(w io.Writer) *tabwriter.Writer {
	return tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
}
