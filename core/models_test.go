package core

import (
	"testing"
)

func TestDigestFromContent(t *testing.T) {
	tests := []struct {
		name    string
		content []byte
	}{
		{
			name:    "same content produces same digest",
			content: []byte("test content"),
		},
		{
			name:    "empty content",
			content: nil,
		},
		{
			name:    "binary content",
			content: []byte{0x25, 0x50, 0x44, 0x46, 0x00, 0xff},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d1 := DigestFromContent(tt.content)
			d2 := DigestFromContent(tt.content)

			if d1 != d2 {
				t.Errorf("DigestFromContent() produced different digests for same content: %s vs %s", d1, d2)
			}
			if len(d1) != 64 {
				t.Errorf("DigestFromContent() length = %d, want 64", len(d1))
			}
		})
	}
}

func TestDigestFromContent_Different(t *testing.T) {
	if DigestFromContent([]byte("content1")) == DigestFromContent([]byte("content2")) {
		t.Errorf("DigestFromContent() produced same digest for different content")
	}
}

func TestParseID(t *testing.T) {
	id, err := ParseID(" 42 ")
	if err != nil {
		t.Fatalf("ParseID() error = %v", err)
	}
	if id != 42 {
		t.Errorf("ParseID() = %d, want 42", id)
	}
	if id.String() != "42" {
		t.Errorf("String() = %q, want %q", id.String(), "42")
	}

	if _, err := ParseID("abc"); err == nil {
		t.Error("ParseID() expected error for non-numeric input")
	}
}

func TestChat_Processing(t *testing.T) {
	tests := []struct {
		name string
		chat Chat
		want bool
	}{
		{
			name: "no file",
			chat: Chat{ProcessingComplete: true},
			want: false,
		},
		{
			name: "file pending",
			chat: Chat{File: &FileInfo{Name: "a.pdf"}},
			want: true,
		},
		{
			name: "file settled",
			chat: Chat{File: &FileInfo{Name: "a.pdf"}, ProcessingComplete: true},
			want: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.chat.Processing(); got != tt.want {
				t.Errorf("Processing() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestArtifact_IsImage(t *testing.T) {
	if !(&Artifact{MediaType: "IMAGE/PNG"}).IsImage() {
		t.Error("IsImage() = false for IMAGE/PNG")
	}
	if (&Artifact{MediaType: "application/pdf"}).IsImage() {
		t.Error("IsImage() = true for application/pdf")
	}
}
