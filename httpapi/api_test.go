package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/poiesic/docent/ai/mock"
	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
	"github.com/poiesic/docent/ingestion"
	"github.com/poiesic/docent/search"
	"github.com/poiesic/docent/storage/badger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	pipeline *ingestion.Pipeline
}

func setupServer(t *testing.T, opts ...ingestion.Option) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	chatRepo, backend, err := badger.NewMemoryRepository()
	require.NoError(t, err)

	pipeline, err := ingestion.NewPipeline(chatRepo, mock.NewMockProvider(), opts...)
	require.NoError(t, err)

	searcher, err := search.NewSearcher(chatRepo)
	require.NoError(t, err)

	t.Cleanup(func() {
		pipeline.Release()
		chatRepo.Close()
		backend.Close()
	})

	return &testServer{
		router:   NewRouter(NewAPI(pipeline, chatRepo, searcher)),
		pipeline: pipeline,
	}
}

func (s *testServer) do(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func (s *testServer) doJSON(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	return s.do(t, req)
}

func (s *testServer) upload(t *testing.T, name, mediaType string, data []byte) *httptest.ResponseRecorder {
	t.Helper()
	body, contentType := multipartBody(t, name, mediaType, data)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", body)
	req.Header.Set("Content-Type", contentType)
	return s.do(t, req)
}

// multipartBody encodes data as the "file" part of an upload form.
func multipartBody(t *testing.T, name, mediaType string, data []byte) (*bytes.Buffer, string) {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, name))
	if mediaType != "" {
		header.Set("Content-Type", mediaType)
	}
	part, err := mw.CreatePart(header)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, mw.WriteField("lastModified", "1740830400000"))
	require.NoError(t, mw.Close())
	return &body, mw.FormDataContentType()
}

// countingReader records how many bytes the handler consumed.
type countingReader struct {
	r io.Reader
	n int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += int64(n)
	return n, err
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &v), w.Body.String())
	return v
}

func TestUploadPDF(t *testing.T) {
	s := setupServer(t)

	pdf := extract.BuildTestPDF(extract.TextPageContent("Invoice Total: $42.00"))
	w := s.upload(t, "invoice.pdf", "application/pdf", pdf)
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())

	created := decode[chatView](t, w)
	assert.NotZero(t, created.ID)
	assert.Equal(t, "invoice.pdf", created.Title)
	require.NotNil(t, created.File)
	assert.Equal(t, int64(len(pdf)), created.File.Size)
	assert.Equal(t, int64(1740830400000), created.File.LastModified.UnixMilli())
	assert.NotEmpty(t, created.Messages)

	s.pipeline.Wait()

	w = s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/chats/%d", created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	chat := decode[chatView](t, w)
	assert.True(t, chat.ProcessingComplete)
	assert.False(t, chat.ProcessingError)
	assert.Equal(t, "Invoice Total: $42.00", chat.FullText)
	assert.Len(t, chat.Messages, 2)

	w = s.do(t, httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/v1/chats/%d/status", created.ID), nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.False(t, decode[runView](t, w).Processing)
}

func TestUploadSniffsMissingType(t *testing.T) {
	s := setupServer(t)

	w := s.upload(t, "notes.txt", "", []byte("plain notes"))
	require.Equal(t, http.StatusAccepted, w.Code, w.Body.String())
	created := decode[chatView](t, w)
	assert.True(t, strings.HasPrefix(created.File.MediaType, "text/plain"), created.File.MediaType)
}

func TestUploadTooLarge(t *testing.T) {
	s := setupServer(t, ingestion.WithMaxUploadSize(1024))

	w := s.upload(t, "big.txt", "text/plain", bytes.Repeat([]byte("a"), 4096))
	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
	assert.Contains(t, decode[map[string]string](t, w)["error"], "exceeds")

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]chatSummary](t, w))
}

func TestUploadTooLarge_BodyNotBuffered(t *testing.T) {
	const limit = 1024
	s := setupServer(t, ingestion.WithMaxUploadSize(limit))
	body, contentType := multipartBody(t, "huge.txt", "text/plain", bytes.Repeat([]byte("a"), 3<<20))
	total := int64(body.Len())

	t.Run("declared length", func(t *testing.T) {
		data := bytes.NewReader(body.Bytes())
		reader := &countingReader{r: data}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", reader)
		req.Header.Set("Content-Type", contentType)
		req.ContentLength = total

		w := s.do(t, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Contains(t, decode[map[string]string](t, w)["error"], "exceeds")
		assert.Zero(t, reader.n)
	})

	t.Run("unknown length", func(t *testing.T) {
		reader := &countingReader{r: bytes.NewReader(body.Bytes())}
		req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", reader)
		req.Header.Set("Content-Type", contentType)
		require.Equal(t, int64(-1), req.ContentLength)

		w := s.do(t, req)
		assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
		assert.Equal(t, "File exceeds the 0MB limit.", decode[map[string]string](t, w)["error"])
		assert.Less(t, reader.n, total)
	})

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats", nil))
	require.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, decode[[]chatSummary](t, w))
}

func TestUploadUnsupportedType(t *testing.T) {
	s := setupServer(t)

	w := s.upload(t, "archive.zip", "application/zip", []byte("PK\x03\x04"))
	assert.Equal(t, http.StatusUnsupportedMediaType, w.Code)
	assert.Equal(t,
		"Unsupported file type: application/zip. Supported formats: PDF, DOCX, TXT, and images.",
		decode[map[string]string](t, w)["error"])
}

func TestCreateEmptyChat(t *testing.T) {
	s := setupServer(t)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/chats", nil)
	w := s.do(t, req)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	chat := decode[chatView](t, w)
	assert.Equal(t, DefaultChatTitle, chat.Title)
	assert.Nil(t, chat.File)
	assert.True(t, chat.ProcessingComplete)
	assert.Empty(t, chat.FullText)
}

func TestChatLifecycle(t *testing.T) {
	s := setupServer(t)

	w := s.upload(t, "notes.txt", "text/plain", []byte("meeting notes"))
	require.Equal(t, http.StatusAccepted, w.Code)
	id := decode[chatView](t, w).ID
	s.pipeline.Wait()
	base := fmt.Sprintf("/api/v1/chats/%d", id)

	w = s.doJSON(t, http.MethodPatch, base, map[string]string{"title": "Meeting"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Meeting", decode[chatView](t, w).Title)

	w = s.doJSON(t, http.MethodPost, base+"/messages", map[string]string{"text": "Summarize it"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	chat := decode[chatView](t, w)
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, core.SenderUser, chat.Messages[2].Sender)

	w = s.doJSON(t, http.MethodPost, base+"/messages", map[string]string{"sender": "ai", "text": "It is short."})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decode[chatView](t, w).Messages, 4)

	w = s.doJSON(t, http.MethodPut, base+"/messages/2", map[string]string{"text": "List the attendees"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	chat = decode[chatView](t, w)
	require.Len(t, chat.Messages, 3)
	assert.Equal(t, "List the attendees", chat.Messages[2].Text)

	w = s.doJSON(t, http.MethodPut, base+"/messages/9", map[string]string{"text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.doJSON(t, http.MethodPost, base+"/messages", map[string]string{"sender": "robot", "text": "x"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, base+"/file", nil))
	require.Equal(t, http.StatusOK, w.Code)
	chat = decode[chatView](t, w)
	assert.Nil(t, chat.File)
	assert.Empty(t, chat.Messages)
	assert.True(t, chat.ProcessingComplete)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, base, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodDelete, base, nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestListChats(t *testing.T) {
	s := setupServer(t)

	for _, name := range []string{"a.txt", "b.txt", "c.txt"} {
		require.Equal(t, http.StatusAccepted, s.upload(t, name, "text/plain", []byte(name)).Code)
	}
	s.pipeline.Wait()

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats?limit=2", nil))
	require.Equal(t, http.StatusOK, w.Code)
	chats := decode[[]chatSummary](t, w)
	require.Len(t, chats, 2)
	assert.Equal(t, "c.txt", chats[0].Title)
	assert.Equal(t, "b.txt", chats[1].Title)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats?limit=x", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSearch(t *testing.T) {
	s := setupServer(t)

	require.Equal(t, http.StatusAccepted, s.upload(t, "lease.txt", "text/plain", []byte("The lease renews in March.")).Code)
	require.Equal(t, http.StatusAccepted, s.upload(t, "menu.txt", "text/plain", []byte("Soup of the day.")).Code)
	s.pipeline.Wait()

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=lease+march", nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	hits := decode[[]searchHitView](t, w)
	require.Len(t, hits, 1)
	assert.Equal(t, "lease.txt", hits[0].Chat.Title)
	assert.Contains(t, hits[0].Snippet, "lease")

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/search?q=the", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestInvalidChatID(t *testing.T) {
	s := setupServer(t)

	w := s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats/abc", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(t, httptest.NewRequest(http.MethodGet, "/api/v1/chats/999/status", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
