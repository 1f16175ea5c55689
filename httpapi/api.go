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


package httpapi

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/search"
	"github.com/poiesic/docent/storage"
)

// DefaultChatTitle names chats created without a file.
const DefaultChatTitle = "New Chat"

const defaultListLimit = 50

// API provides the HTTP handlers.
type API struct {
	pipeline      *ingestion.Pipeline
	chats         storage.ChatRepository
	searcher      *search.Searcher
	maxUploadSize int64
	logger        *slog.Logger
}

// Option configures an API.
type Option func(*API)

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(a *API) {
		if logger != nil {
			a.logger = logger
		}
	}
}

// WithMaxUploadSize sets the largest file part accepted before it is read.
// Default is the pipeline's limit.
func WithMaxUploadSize(size int64) Option {
	return func(a *API) {
		if size > 0 {
			a.maxUploadSize = size
		}
	}
}

// NewAPI creates a new API handler.
func NewAPI(pipeline *ingestion.Pipeline, chats storage.ChatRepository, searcher *search.Searcher, opts ...Option) *API {
	a := &API{
		pipeline:      pipeline,
		chats:         chats,
		searcher:      searcher,
		maxUploadSize: core.MaxUploadSize,
		logger:        slog.Default(),
	}
	if pipeline != nil {
		a.maxUploadSize = pipeline.MaxUploadSize()
	}
	for _, opt := range opts {
		opt(a)
	}
	a.logger = a.logger.With("component", "httpapi")
	return a
}

// CreateChatHandler uploads a file into a new chat. Without a "file" part
// it creates an empty chat titled by the "title" field.
func (a *API) CreateChatHandler(c *gin.Context) {
	bodyLimit := a.maxUploadSize + multipartOverhead
	if c.Request.ContentLength > bodyLimit {
		a.writeError(c, core.TooLargeError(c.Request.ContentLength, a.maxUploadSize))
		return
	}
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, bodyLimit)

	header, err := c.FormFile("file")
	var bodyErr *http.MaxBytesError
	switch {
	case errors.As(err, &bodyErr):
		a.writeError(c, core.TooLargeError(-1, a.maxUploadSize))
		return
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		a.createEmptyChat(c)
		return
	case err != nil:
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid upload"})
		return
	}
	if header.Size > a.maxUploadSize {
		a.writeError(c, core.TooLargeError(header.Size, a.maxUploadSize))
		return
	}

	artifact, err := readArtifact(header, c.PostForm("lastModified"))
	if err != nil {
		a.logger.Warn("failed to read upload", "file", header.Filename, "err", err)
		c.JSON(http.StatusBadRequest, gin.H{"error": "Failed to read the uploaded file"})
		return
	}

	id, err := a.pipeline.BeginIngestion(c.Request.Context(), artifact)
	if err != nil {
		a.writeError(c, err)
		return
	}

	chat, err := a.chats.GetChat(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusAccepted, newChatView(chat))
}

func (a *API) createEmptyChat(c *gin.Context) {
	title := c.PostForm("title")
	if title == "" {
		title = DefaultChatTitle
	}
	chat, err := a.chats.CreateChat(c.Request.Context(), &core.Chat{Title: title, ProcessingComplete: true})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, newChatView(chat))
}

// ListChatsHandler lists chats newest first.
func (a *API) ListChatsHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultListLimit)))
	if err != nil || limit < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	chats, err := a.chats.ListChats(c.Request.Context(), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}

	summaries := make([]chatSummary, len(chats))
	for i, chat := range chats {
		summaries[i] = newChatSummary(chat)
	}
	c.JSON(http.StatusOK, summaries)
}

// GetChatHandler returns one chat.
func (a *API) GetChatHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	chat, err := a.chats.GetChat(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatView(chat))
}

// StatusHandler reports the chat's in-flight extraction.
func (a *API) StatusHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	if _, err := a.chats.GetChat(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newRunView(a.pipeline.Status(id)))
}

// RenameChatHandler replaces a chat's title.
func (a *API) RenameChatHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}

	var payload struct {
		Title string `json:"title" binding:"required"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	chat, err := a.chats.RenameChat(c.Request.Context(), id, payload.Title)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatView(chat))
}

// AppendMessageHandler appends a message to the conversation.
func (a *API) AppendMessageHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}

	var payload struct {
		Sender core.Sender `json:"sender"`
		Text   string      `json:"text"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if payload.Sender == "" {
		payload.Sender = core.SenderUser
	}

	chat, err := a.chats.AppendMessages(c.Request.Context(), id, core.Message{Sender: payload.Sender, Text: payload.Text})
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatView(chat))
}

// EditMessageHandler replaces a message's text and drops every later message.
func (a *API) EditMessageHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	index, err := strconv.Atoi(c.Param("index"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid message index"})
		return
	}

	var payload struct {
		Text string `json:"text"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}

	chat, err := a.chats.EditMessage(c.Request.Context(), id, index, payload.Text)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatView(chat))
}

// RemoveFileHandler detaches the chat's file.
func (a *API) RemoveFileHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	chat, err := a.pipeline.RemoveFile(c.Request.Context(), id)
	if err != nil {
		a.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, newChatView(chat))
}

// DeleteChatHandler deletes a chat.
func (a *API) DeleteChatHandler(c *gin.Context) {
	id, ok := chatID(c)
	if !ok {
		return
	}
	if err := a.pipeline.DeleteChat(c.Request.Context(), id); err != nil {
		a.writeError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SearchHandler runs a keyword search.
func (a *API) SearchHandler(c *gin.Context) {
	limit, err := strconv.Atoi(c.DefaultQuery("limit", "10"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid limit"})
		return
	}

	results, err := a.searcher.Find(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		a.writeError(c, err)
		return
	}

	hits := make([]searchHitView, len(results))
	for i, r := range results {
		hits[i] = searchHitView{Chat: newChatSummary(r.Chat), Score: r.Score, Snippet: r.Snippet}
	}
	c.JSON(http.StatusOK, hits)
}

// writeError maps err onto a status code and a user-facing message.
func (a *API) writeError(c *gin.Context, err error) {
	var validationErr *core.ValidationError
	switch {
	case errors.As(err, &validationErr):
		status := http.StatusBadRequest
		switch {
		case errors.Is(err, core.ErrFileTooLarge):
			status = http.StatusRequestEntityTooLarge
		case errors.Is(err, core.ErrUnsupportedType):
			status = http.StatusUnsupportedMediaType
		}
		c.JSON(status, gin.H{"error": validationErr.Message})
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "Chat not found"})
	case errors.Is(err, core.ErrMessageIndex):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Message index out of range"})
	case errors.Is(err, core.ErrInvalidMessage), errors.Is(err, core.ErrInvalidChat):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, search.ErrEmptyQuery):
		c.JSON(http.StatusBadRequest, gin.H{"error": "Search query is empty"})
	case errors.Is(err, ingestion.ErrPipelineClosed):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Server is shutting down"})
	default:
		a.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
	}
}

// chatID parses the :id parameter, writing a 400 when it is malformed.
func chatID(c *gin.Context) (core.ID, bool) {
	id, err := core.ParseID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid chat ID"})
		return 0, false
	}
	return id, true
}

// readArtifact reads an uploaded part. lastModified is the client's
// modification time in Unix milliseconds and may be empty.
func readArtifact(header *multipart.FileHeader, lastModified string) (*core.Artifact, error) {
	f, err := header.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, err
	}

	mediaType := header.Header.Get("Content-Type")
	if mediaType == "" || mediaType == "application/octet-stream" {
		mediaType = extract.SniffMediaType(header.Filename, data)
	}

	artifact := &core.Artifact{
		Name:         header.Filename,
		MediaType:    mediaType,
		Data:         data,
		LastModified: time.Now().UTC(),
	}
	if lastModified != "" {
		ms, err := strconv.ParseInt(lastModified, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid lastModified %q: %w", lastModified, err)
		}
		artifact.LastModified = time.UnixMilli(ms).UTC()
	}
	return artifact, nil
}
