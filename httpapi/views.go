package httpapi

import (
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/ingestion"
)

type fileView struct {
	Name         string    `json:"name"`
	MediaType    string    `json:"type"`
	Size         int64     `json:"size"`
	LastModified time.Time `json:"lastModified"`
	IsImage      bool      `json:"isImage"`
	Digest       string    `json:"digest"`
}

type messageView struct {
	Sender    core.Sender `json:"sender"`
	Text      string      `json:"text"`
	Timestamp time.Time   `json:"timestamp"`
}

type chatView struct {
	ID                 core.ID       `json:"id"`
	Title              string        `json:"title"`
	File               *fileView     `json:"file"`
	FullText           string        `json:"fullText"`
	Messages           []messageView `json:"messages"`
	ProcessingComplete bool          `json:"processingComplete"`
	ProcessingError    bool          `json:"processingError"`
	CreatedAt          time.Time     `json:"createdAt"`
	UpdatedAt          time.Time     `json:"updatedAt"`
}

// chatSummary omits the extracted text and conversation.
type chatSummary struct {
	ID                 core.ID   `json:"id"`
	Title              string    `json:"title"`
	FileName           string    `json:"fileName,omitempty"`
	ProcessingComplete bool      `json:"processingComplete"`
	ProcessingError    bool      `json:"processingError"`
	CreatedAt          time.Time `json:"createdAt"`
}

type runView struct {
	Processing bool      `json:"processing"`
	RunID      string    `json:"runId,omitempty"`
	Format     string    `json:"format,omitempty"`
	StartedAt  time.Time `json:"startedAt,omitzero"`
}

type searchHitView struct {
	Chat    chatSummary `json:"chat"`
	Score   float32     `json:"score"`
	Snippet string      `json:"snippet"`
}

func newChatView(chat *core.Chat) chatView {
	v := chatView{
		ID:                 chat.Id,
		Title:              chat.Title,
		FullText:           chat.FullText,
		Messages:           make([]messageView, len(chat.Messages)),
		ProcessingComplete: chat.ProcessingComplete,
		ProcessingError:    chat.ProcessingError,
		CreatedAt:          chat.CreatedAt,
		UpdatedAt:          chat.UpdatedAt,
	}
	if chat.File != nil {
		v.File = &fileView{
			Name:         chat.File.Name,
			MediaType:    chat.File.MediaType,
			Size:         chat.File.Size,
			LastModified: chat.File.LastModified,
			IsImage:      chat.File.IsImage,
			Digest:       chat.File.Digest,
		}
	}
	for i, m := range chat.Messages {
		v.Messages[i] = messageView{Sender: m.Sender, Text: m.Text, Timestamp: m.Timestamp}
	}
	return v
}

func newChatSummary(chat *core.Chat) chatSummary {
	s := chatSummary{
		ID:                 chat.Id,
		Title:              chat.Title,
		ProcessingComplete: chat.ProcessingComplete,
		ProcessingError:    chat.ProcessingError,
		CreatedAt:          chat.CreatedAt,
	}
	if chat.File != nil {
		s.FileName = chat.File.Name
	}
	return s
}

func newRunView(run ingestion.Run, ok bool) runView {
	if !ok {
		return runView{}
	}
	return runView{
		Processing: true,
		RunID:      run.ID,
		Format:     run.Format.String(),
		StartedAt:  run.StartedAt,
	}
}
