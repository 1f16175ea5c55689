package core

import (
	"encoding/hex"
	"strconv"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// Chat ids are generated from database sequences and are never 0.
type ID uint64

// String renders the id in base 10.
func (id ID) String() string {
	return strconv.FormatUint(uint64(id), 10)
}

// ParseID parses a base 10 id.
func ParseID(s string) (ID, error) {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0, err
	}
	return ID(v), nil
}

// DigestFromContent returns the hex encoded BLAKE2b-256 digest of data.
// Identical uploads produce identical digests.
func DigestFromContent(data []byte) string {
	h, _ := blake2b.New(32, nil)
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// Sender identifies the author of a chat message.
type Sender string

const (
	// SenderUser represents the human user.
	SenderUser Sender = "user"
	// SenderAI represents the assistant, including informational notices.
	SenderAI Sender = "ai"
)

// Message is a single entry in a chat's conversation.
type Message struct {
	Sender    Sender
	Text      string
	Timestamp time.Time
}

// FileInfo describes the artifact attached to a chat.
// Raw bytes are never retained.
type FileInfo struct {
	Name         string
	MediaType    string
	Size         int64
	LastModified time.Time
	IsImage      bool
	Digest       string // BLAKE2b-256 of the uploaded bytes
}

// Chat is the conversation record mutated by the ingestion pipeline.
//
// A chat without a file always has ProcessingComplete set and an empty
// FullText. While ProcessingComplete is false, FullText holds only the
// placeholder.
type Chat struct {
	Id                 ID
	Title              string
	File               *FileInfo
	FullText           string
	Messages           []Message
	ProcessingComplete bool
	ProcessingError    bool
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// HasFile reports whether an artifact is attached to the chat.
func (c *Chat) HasFile() bool {
	return c.File != nil
}

// Processing reports whether extraction is still pending for the chat.
func (c *Chat) Processing() bool {
	return c.File != nil && !c.ProcessingComplete
}

// Artifact is an uploaded file before any processing.
// It is owned by the caller and never persisted.
type Artifact struct {
	Name         string
	MediaType    string // declared media type, may be empty
	Data         []byte
	LastModified time.Time
}

// Size returns the artifact's byte size.
func (a *Artifact) Size() int64 {
	return int64(len(a.Data))
}

// IsImage reports whether the declared media type is an image type.
func (a *Artifact) IsImage() bool {
	return strings.HasPrefix(strings.ToLower(a.MediaType), "image/")
}

// Completion is the terminal write applied to a chat once extraction settles.
// It only touches File, FullText, ProcessingComplete, ProcessingError and
// appends Message.
type Completion struct {
	File     *FileInfo // replaces the descriptor when non-nil
	FullText string
	Failed   bool
	Message  Message
}

// SearchResult is a chat matched by a keyword search.
type SearchResult struct {
	Chat    *Chat
	Score   float32
	Snippet string // excerpt of FullText around the first hit
}
