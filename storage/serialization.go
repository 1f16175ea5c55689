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


package storage

import (
	"fmt"
	"time"

	"github.com/mus-format/mus-go/ord"
	"github.com/mus-format/mus-go/varint"
	"github.com/poiesic/docent/core"
)

// chatFormatVersion prefixes every encoded chat.
const chatFormatVersion uint64 = 1

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, varint.Uint64.Size(uint64(id)))
	varint.Uint64.Marshal(uint64(id), buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	v, _, err := varint.Uint64.Unmarshal(data)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrSerializationFailed, err)
	}
	return core.ID(v), nil
}

// MarshalChat serializes a Chat to bytes.
func MarshalChat(chat *core.Chat) []byte {
	var sz sizer
	writeChat(&sz, chat)
	w := &writer{buf: make([]byte, sz.n)}
	writeChat(w, chat)
	return w.buf
}

// UnmarshalChat deserializes a Chat from bytes.
func UnmarshalChat(data []byte) (*core.Chat, error) {
	r := &reader{buf: data}
	if v := r.uint64(); r.err == nil && v != chatFormatVersion {
		return nil, fmt.Errorf("%w: unknown chat format version %d", ErrSerializationFailed, v)
	}

	chat := &core.Chat{}
	chat.Id = core.ID(r.uint64())
	chat.Title = r.string()
	if r.bool() {
		chat.File = &core.FileInfo{
			Name:         r.string(),
			MediaType:    r.string(),
			Size:         r.int64(),
			LastModified: r.time(),
			IsImage:      r.bool(),
			Digest:       r.string(),
		}
	}
	chat.FullText = r.string()
	count := r.uint64()
	if r.err == nil && count > uint64(len(data)) {
		return nil, ErrTruncatedData
	}
	if count > 0 && r.err == nil {
		chat.Messages = make([]core.Message, 0, count)
		for i := uint64(0); i < count && r.err == nil; i++ {
			chat.Messages = append(chat.Messages, core.Message{
				Sender:    core.Sender(r.string()),
				Text:      r.string(),
				Timestamp: r.time(),
			})
		}
	}
	chat.ProcessingComplete = r.bool()
	chat.ProcessingError = r.bool()
	chat.CreatedAt = r.time()
	chat.UpdatedAt = r.time()

	if r.err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSerializationFailed, r.err)
	}
	return chat, nil
}

// encoder is implemented by sizer and writer so the field order is
// declared once in writeChat.
type encoder interface {
	uint64(v uint64)
	int64(v int64)
	string(v string)
	bool(v bool)
}

func writeChat(e encoder, chat *core.Chat) {
	e.uint64(chatFormatVersion)
	e.uint64(uint64(chat.Id))
	e.string(chat.Title)
	e.bool(chat.File != nil)
	if chat.File != nil {
		e.string(chat.File.Name)
		e.string(chat.File.MediaType)
		e.int64(chat.File.Size)
		writeTime(e, chat.File.LastModified)
		e.bool(chat.File.IsImage)
		e.string(chat.File.Digest)
	}
	e.string(chat.FullText)
	e.uint64(uint64(len(chat.Messages)))
	for _, m := range chat.Messages {
		e.string(string(m.Sender))
		e.string(m.Text)
		writeTime(e, m.Timestamp)
	}
	e.bool(chat.ProcessingComplete)
	e.bool(chat.ProcessingError)
	writeTime(e, chat.CreatedAt)
	writeTime(e, chat.UpdatedAt)
}

// Timestamps are stored as Unix microseconds; the zero time is stored as 0.
func writeTime(e encoder, t time.Time) {
	if t.IsZero() {
		e.int64(0)
		return
	}
	e.int64(t.UnixMicro())
}

type sizer struct {
	n int
}

func (s *sizer) uint64(v uint64) { s.n += varint.Uint64.Size(v) }
func (s *sizer) int64(v int64)   { s.n += varint.Int64.Size(v) }
func (s *sizer) string(v string) { s.n += ord.String.Size(v) }
func (s *sizer) bool(v bool)     { s.n += ord.Bool.Size(v) }

type writer struct {
	buf []byte
	off int
}

func (w *writer) uint64(v uint64) { w.off += varint.Uint64.Marshal(v, w.buf[w.off:]) }
func (w *writer) int64(v int64)   { w.off += varint.Int64.Marshal(v, w.buf[w.off:]) }
func (w *writer) string(v string) { w.off += ord.String.Marshal(v, w.buf[w.off:]) }
func (w *writer) bool(v bool)     { w.off += ord.Bool.Marshal(v, w.buf[w.off:]) }

// reader records the first error and turns every later read into a no-op.
type reader struct {
	buf []byte
	off int
	err error
}

func (r *reader) uint64() uint64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Uint64.Unmarshal(r.buf[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) int64() int64 {
	if r.err != nil {
		return 0
	}
	v, n, err := varint.Int64.Unmarshal(r.buf[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) string() string {
	if r.err != nil {
		return ""
	}
	v, n, err := ord.String.Unmarshal(r.buf[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) bool() bool {
	if r.err != nil {
		return false
	}
	v, n, err := ord.Bool.Unmarshal(r.buf[r.off:])
	r.off += n
	r.err = err
	return v
}

func (r *reader) time() time.Time {
	us := r.int64()
	if us == 0 {
		return time.Time{}
	}
	return time.UnixMicro(us).UTC()
}
