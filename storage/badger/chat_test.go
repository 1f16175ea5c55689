package badger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/storage"
)

func newTestRepo(t *testing.T) storage.ChatRepository {
	t.Helper()
	chatRepo, backend, err := NewMemoryRepository()
	if err != nil {
		t.Fatalf("Failed to create repository: %v", err)
	}
	t.Cleanup(func() {
		chatRepo.Close()
		backend.Close()
	})
	return chatRepo
}

func pendingChat(name string) *core.Chat {
	return &core.Chat{
		Title:    core.TitleFromFileName(name),
		File:     &core.FileInfo{Name: name, MediaType: "application/pdf", Size: 10},
		FullText: "Processing " + name + "...",
		Messages: []core.Message{{Sender: core.SenderAI, Text: "uploaded"}},
	}
}

func TestChatBasics(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	created, err := chatRepo.CreateChat(ctx, pendingChat("report.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	if created.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}
	if created.CreatedAt.IsZero() {
		t.Fatal("Expected CreatedAt to be set")
	}

	retrieved, err := chatRepo.GetChat(ctx, created.Id)
	if err != nil {
		t.Fatalf("Failed to get chat: %v", err)
	}
	if retrieved.Title != "report.pdf" {
		t.Fatalf("Expected 'report.pdf', got '%s'", retrieved.Title)
	}
	if retrieved.File == nil || retrieved.File.Name != "report.pdf" {
		t.Fatalf("Expected file to round-trip, got %+v", retrieved.File)
	}
	if retrieved.ProcessingComplete {
		t.Fatal("Expected pending chat")
	}
}

func TestCreateChat_RejectsInvalid(t *testing.T) {
	chatRepo := newTestRepo(t)

	_, err := chatRepo.CreateChat(context.Background(), &core.Chat{ProcessingComplete: false})
	if !errors.Is(err, core.ErrInvalidChat) {
		t.Fatalf("Expected ErrInvalidChat, got %v", err)
	}
}

func TestGetChat_NotFound(t *testing.T) {
	chatRepo := newTestRepo(t)

	_, err := chatRepo.GetChat(context.Background(), 999)
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListChats_NewestFirst(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	var ids []core.ID
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf"} {
		chat, err := chatRepo.CreateChat(ctx, pendingChat(name))
		if err != nil {
			t.Fatalf("Failed to create chat: %v", err)
		}
		ids = append(ids, chat.Id)
		time.Sleep(time.Millisecond)
	}

	results, err := chatRepo.ListChats(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list chats: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("Expected 3 chats, got %d", len(results))
	}
	for i, chat := range results {
		if chat.Id != ids[len(ids)-1-i] {
			t.Errorf("Position %d: expected id %d, got %d", i, ids[len(ids)-1-i], chat.Id)
		}
	}

	limited, err := chatRepo.ListChats(ctx, 2)
	if err != nil {
		t.Fatalf("Failed to list chats: %v", err)
	}
	if len(limited) != 2 {
		t.Fatalf("Expected 2 chats, got %d", len(limited))
	}
	if limited[0].Title != "c.pdf" {
		t.Fatalf("Expected newest chat first, got %s", limited[0].Title)
	}
}

func TestListChatsBefore_Pages(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	var created []*core.Chat
	for _, name := range []string{"a.pdf", "b.pdf", "c.pdf", "d.pdf", "e.pdf"} {
		chat, err := chatRepo.CreateChat(ctx, pendingChat(name))
		if err != nil {
			t.Fatalf("Failed to create chat: %v", err)
		}
		created = append(created, chat)
		time.Sleep(time.Millisecond)
	}

	var titles []string
	var cursor *core.Chat
	for {
		page, err := chatRepo.ListChatsBefore(ctx, cursor, 2)
		if err != nil {
			t.Fatalf("Failed to list page: %v", err)
		}
		if len(page) > 2 {
			t.Fatalf("Expected at most 2 chats per page, got %d", len(page))
		}
		if len(page) == 0 {
			break
		}
		for _, chat := range page {
			titles = append(titles, chat.Title)
		}
		cursor = page[len(page)-1]
	}
	expected := []string{"e.pdf", "d.pdf", "c.pdf", "b.pdf", "a.pdf"}
	if len(titles) != len(expected) {
		t.Fatalf("Expected %v, got %v", expected, titles)
	}
	for i := range expected {
		if titles[i] != expected[i] {
			t.Fatalf("Expected %v, got %v", expected, titles)
		}
	}

	// A deleted cursor still positions the walk
	if err := chatRepo.DeleteChat(ctx, created[2].Id); err != nil {
		t.Fatalf("Failed to delete chat: %v", err)
	}
	page, err := chatRepo.ListChatsBefore(ctx, created[2], 0)
	if err != nil {
		t.Fatalf("Failed to list page: %v", err)
	}
	if len(page) != 2 || page[0].Title != "b.pdf" || page[1].Title != "a.pdf" {
		t.Fatalf("Expected chats older than c.pdf, got %d chats", len(page))
	}
}

func TestDeleteChat(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("gone.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	if err := chatRepo.DeleteChat(ctx, chat.Id); err != nil {
		t.Fatalf("Failed to delete chat: %v", err)
	}
	if _, err := chatRepo.GetChat(ctx, chat.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound after delete, got %v", err)
	}
	results, err := chatRepo.ListChats(ctx, 0)
	if err != nil {
		t.Fatalf("Failed to list chats: %v", err)
	}
	if len(results) != 0 {
		t.Fatalf("Expected index entry to be removed, got %d chats", len(results))
	}
	if err := chatRepo.DeleteChat(ctx, chat.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound on second delete, got %v", err)
	}
}

func TestRenameChat(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("draft.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	renamed, err := chatRepo.RenameChat(ctx, chat.Id, "Final draft")
	if err != nil {
		t.Fatalf("Failed to rename chat: %v", err)
	}
	if renamed.Title != "Final draft" {
		t.Fatalf("Expected 'Final draft', got '%s'", renamed.Title)
	}
	if renamed.FullText != chat.FullText || len(renamed.Messages) != 1 {
		t.Fatal("Expected rename to leave other fields untouched")
	}
}

func TestAppendAndEditMessages(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("notes.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	updated, err := chatRepo.AppendMessages(ctx, chat.Id,
		core.Message{Sender: core.SenderUser, Text: "first question"},
		core.Message{Sender: core.SenderAI, Text: "first answer"},
		core.Message{Sender: core.SenderUser, Text: "second question"},
	)
	if err != nil {
		t.Fatalf("Failed to append messages: %v", err)
	}
	if len(updated.Messages) != 4 {
		t.Fatalf("Expected 4 messages, got %d", len(updated.Messages))
	}
	if updated.Messages[1].Timestamp.IsZero() {
		t.Fatal("Expected appended message to be timestamped")
	}

	edited, err := chatRepo.EditMessage(ctx, chat.Id, 1, "reworded question")
	if err != nil {
		t.Fatalf("Failed to edit message: %v", err)
	}
	if len(edited.Messages) != 2 {
		t.Fatalf("Expected truncation to 2 messages, got %d", len(edited.Messages))
	}
	if edited.Messages[1].Text != "reworded question" {
		t.Fatalf("Expected edited text, got '%s'", edited.Messages[1].Text)
	}

	if _, err := chatRepo.EditMessage(ctx, chat.Id, 5, "nope"); !errors.Is(err, core.ErrMessageIndex) {
		t.Fatalf("Expected ErrMessageIndex, got %v", err)
	}
	if _, err := chatRepo.AppendMessages(ctx, chat.Id, core.Message{Sender: "bot", Text: "x"}); !errors.Is(err, core.ErrInvalidSender) {
		t.Fatalf("Expected ErrInvalidSender, got %v", err)
	}
}

func TestCompleteProcessing(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("invoice.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	completion := core.Completion{
		FullText: "Invoice Total: $42.00",
		Message:  core.Message{Sender: core.SenderAI, Text: "done"},
	}
	done, err := chatRepo.CompleteProcessing(ctx, chat.Id, completion)
	if err != nil {
		t.Fatalf("Failed to complete processing: %v", err)
	}
	if !done.ProcessingComplete || done.ProcessingError {
		t.Fatalf("Expected successful completion, got complete=%v error=%v", done.ProcessingComplete, done.ProcessingError)
	}
	if done.FullText != "Invoice Total: $42.00" {
		t.Fatalf("Unexpected full text: %s", done.FullText)
	}
	if done.File == nil || done.File.Name != "invoice.pdf" {
		t.Fatal("Expected file to be kept when completion has none")
	}
	if len(done.Messages) != 2 || done.Messages[1].Text != "done" {
		t.Fatalf("Expected completion message appended, got %+v", done.Messages)
	}

	_, err = chatRepo.CompleteProcessing(ctx, chat.Id, completion)
	if !errors.Is(err, storage.ErrAlreadySettled) {
		t.Fatalf("Expected ErrAlreadySettled on second completion, got %v", err)
	}
}

func TestCompleteProcessing_DeletedChat(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("tmp.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}
	if err := chatRepo.DeleteChat(ctx, chat.Id); err != nil {
		t.Fatalf("Failed to delete chat: %v", err)
	}

	_, err = chatRepo.CompleteProcessing(ctx, chat.Id, core.Completion{
		FullText: "late",
		Message:  core.Message{Sender: core.SenderAI, Text: "done"},
	})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
	if _, err := chatRepo.GetChat(ctx, chat.Id); !errors.Is(err, storage.ErrNotFound) {
		t.Fatal("Expected deleted chat to stay deleted")
	}
}

func TestRemoveFile(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("photo.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	cleared, err := chatRepo.RemoveFile(ctx, chat.Id)
	if err != nil {
		t.Fatalf("Failed to remove file: %v", err)
	}
	if cleared.File != nil || cleared.FullText != "" || len(cleared.Messages) != 0 {
		t.Fatalf("Expected file, text and messages cleared, got %+v", cleared)
	}
	if !cleared.ProcessingComplete || cleared.ProcessingError {
		t.Fatal("Expected chat without a file to be complete")
	}

	_, err = chatRepo.CompleteProcessing(ctx, chat.Id, core.Completion{
		FullText: "late",
		Message:  core.Message{Sender: core.SenderAI, Text: "done"},
	})
	if !errors.Is(err, storage.ErrAlreadySettled) {
		t.Fatalf("Expected ErrAlreadySettled after file removal, got %v", err)
	}
}

func TestConcurrentFieldUpdates(t *testing.T) {
	chatRepo := newTestRepo(t)
	ctx := context.Background()

	chat, err := chatRepo.CreateChat(ctx, pendingChat("race.pdf"))
	if err != nil {
		t.Fatalf("Failed to create chat: %v", err)
	}

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, err := chatRepo.AppendMessages(ctx, chat.Id, core.Message{Sender: core.SenderUser, Text: "what does it say?"})
		errs <- err
	}()
	go func() {
		defer wg.Done()
		_, err := chatRepo.CompleteProcessing(ctx, chat.Id, core.Completion{
			FullText: "body",
			Message:  core.Message{Sender: core.SenderAI, Text: "done"},
		})
		errs <- err
	}()
	wg.Wait()
	close(errs)
	for err := range errs {
		if err != nil {
			t.Fatalf("Concurrent update failed: %v", err)
		}
	}

	final, err := chatRepo.GetChat(ctx, chat.Id)
	if err != nil {
		t.Fatalf("Failed to get chat: %v", err)
	}
	if len(final.Messages) != 3 {
		t.Fatalf("Expected both concurrent messages to land, got %d", len(final.Messages))
	}
	if final.FullText != "body" || !final.ProcessingComplete {
		t.Fatal("Expected completion fields to be applied")
	}
}
