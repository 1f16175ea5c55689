package openai

import (
	"context"
	"encoding/base64"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docent/ai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/fake"
)

// recordingModel captures the messages it receives.
type recordingModel struct {
	mu       sync.Mutex
	messages []llms.MessageContent
	reply    string
	err      error
}

func (m *recordingModel) GenerateContent(ctx context.Context, messages []llms.MessageContent, options ...llms.CallOption) (*llms.ContentResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.messages = messages
	if m.err != nil {
		return nil, m.err
	}
	return &llms.ContentResponse{Choices: []*llms.ContentChoice{{Content: m.reply}}}, nil
}

func (m *recordingModel) Call(ctx context.Context, prompt string, options ...llms.CallOption) (string, error) {
	return llms.GenerateFromSinglePrompt(ctx, m, prompt, options...)
}

var pngBytes = []byte{0x89, 'P', 'N', 'G', 0x0d, 0x0a, 0x1a, 0x0a}

func TestImageDescriber_SendsDataURL(t *testing.T) {
	model := &recordingModel{reply: "A red barn in a green field."}
	d := newImageDescriberWithModel(model, ai.DefaultConfig())

	text, err := d.DescribeImage(context.Background(), pngBytes, "image/png")
	require.NoError(t, err)
	assert.Equal(t, "A red barn in a green field.", text)

	require.Len(t, model.messages, 2)
	assert.Equal(t, llms.ChatMessageTypeSystem, model.messages[0].Role)
	human := model.messages[1]
	require.Len(t, human.Parts, 2)
	image, ok := human.Parts[0].(llms.ImageURLContent)
	require.True(t, ok, "first part should be the image")
	assert.Equal(t, "data:image/png;base64,"+base64.StdEncoding.EncodeToString(pngBytes), image.URL)
	prompt, ok := human.Parts[1].(llms.TextContent)
	require.True(t, ok)
	assert.Contains(t, prompt.Text, "colors")
}

func TestImageDescriber_Errors(t *testing.T) {
	t.Run("transport failure", func(t *testing.T) {
		model := &recordingModel{err: errors.New("connection refused")}
		d := newImageDescriberWithModel(model, ai.DefaultConfig())

		_, err := d.DescribeImage(context.Background(), pngBytes, "image/png")
		assert.ErrorContains(t, err, "connection refused")
	})

	t.Run("blank reply", func(t *testing.T) {
		d := newImageDescriberWithModel(&recordingModel{reply: "   "}, ai.DefaultConfig())

		_, err := d.DescribeImage(context.Background(), pngBytes, "image/png")
		assert.ErrorIs(t, err, ai.ErrEmptyResponse)
	})

	t.Run("empty image", func(t *testing.T) {
		d := newImageDescriberWithModel(&recordingModel{reply: "x"}, ai.DefaultConfig())

		_, err := d.DescribeImage(context.Background(), nil, "image/png")
		assert.Error(t, err)
	})
}

func TestTextRecognizer(t *testing.T) {
	t.Run("transcription", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{"```\nINVOICE #123   \nDue: 30 days\n```"})
		r := newTextRecognizerWithModel(model, ai.DefaultConfig())

		text, err := r.RecognizeText(context.Background(), pngBytes, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "INVOICE #123\nDue: 30 days", text)
	})

	t.Run("no text sentinel", func(t *testing.T) {
		model := fake.NewFakeLLM([]string{"None."})
		r := newTextRecognizerWithModel(model, ai.DefaultConfig())

		_, err := r.RecognizeText(context.Background(), pngBytes, "image/png")
		assert.ErrorIs(t, err, ai.ErrNoText)
	})

	t.Run("blank reply", func(t *testing.T) {
		r := newTextRecognizerWithModel(&recordingModel{reply: ""}, ai.DefaultConfig())

		_, err := r.RecognizeText(context.Background(), pngBytes, "image/png")
		assert.ErrorIs(t, err, ai.ErrNoText)
	})
}

func TestDataURL(t *testing.T) {
	assert.True(t, strings.HasPrefix(dataURL([]byte("x"), "image/jpeg; q=1"), "data:image/jpeg;base64,"))
	assert.True(t, strings.HasPrefix(dataURL([]byte("x"), ""), "data:application/octet-stream;base64,"))
}

func TestStripCodeFences(t *testing.T) {
	assert.Equal(t, "plain", stripCodeFences("plain"))
	assert.Equal(t, "body", stripCodeFences("```text\nbody\n```"))
	assert.Equal(t, "one line", stripCodeFences("```one line```"))
}

type staticRecognizer struct{}

func (staticRecognizer) RecognizeText(ctx context.Context, image []byte, mediaType string) (string, error) {
	return "static", nil
}

func TestNewProvider(t *testing.T) {
	t.Run("vision backend", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig(ai.WithHost("http://localhost:1")))
		require.NoError(t, err)
		defer p.Close()

		assert.NotNil(t, p.Describer())
		assert.IsType(t, &TextRecognizer{}, p.Recognizer())
	})

	t.Run("tesseract backend needs a recognizer", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithOCRBackend(ai.OCRBackendTesseract)))
		assert.ErrorIs(t, err, ErrRecognizerRequired)
	})

	t.Run("custom recognizer", func(t *testing.T) {
		p, err := NewProvider(ai.NewConfig(ai.WithOCRBackend(ai.OCRBackendTesseract)), WithRecognizer(staticRecognizer{}))
		require.NoError(t, err)

		text, err := p.Recognizer().RecognizeText(context.Background(), pngBytes, "image/png")
		require.NoError(t, err)
		assert.Equal(t, "static", text)
	})

	t.Run("invalid config", func(t *testing.T) {
		_, err := NewProvider(ai.NewConfig(ai.WithVisionModel("")))
		assert.Error(t, err)
	})
}
