package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/poiesic/docent/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli/v2"
)

// syncBuffer is a bytes.Buffer safe for the pipeline's background logging.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

// runApp runs the CLI and returns its standard output and error output.
func runApp(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	app := newApp()
	out, errOut := &syncBuffer{}, &syncBuffer{}
	app.Writer = out
	app.ErrWriter = errOut
	err := app.Run(append([]string{"docent", "--log-level", "error"}, args...))
	return out.String(), errOut.String(), err
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// chatsByTitle opens the database directly and indexes its chats.
func chatsByTitle(t *testing.T, dbPath string) map[string]*core.Chat {
	t.Helper()
	db, err := docent.NewDatabase(dbPath)
	require.NoError(t, err)
	defer db.Close()

	chats, err := db.ChatRepository().ListChats(context.Background(), 0)
	require.NoError(t, err)
	byTitle := make(map[string]*core.Chat, len(chats))
	for _, chat := range chats {
		byTitle[chat.Title] = chat
	}
	return byTitle
}

func TestSetupLogger(t *testing.T) {
	t.Run("valid log levels", func(t *testing.T) {
		for _, level := range []string{"debug", "info", "warn", "error"} {
			t.Run(level, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: level,
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", level})
				require.NoError(t, err)
			})
		}
	})

	t.Run("case insensitive log levels", func(t *testing.T) {
		for _, tc := range []string{"DEBUG", "Info", "WaRn", "ERROR"} {
			t.Run(tc, func(t *testing.T) {
				app := &cli.App{
					Name: "test",
					Flags: []cli.Flag{
						&cli.StringFlag{
							Name:  "log-level",
							Value: "info",
						},
					},
					Before: setupLogger,
					Action: func(c *cli.Context) error {
						return nil
					},
				}

				err := app.Run([]string{"test", "--log-level", tc})
				require.NoError(t, err)
			})
		}
	})

	t.Run("invalid log level returns error", func(t *testing.T) {
		_, _, err := runApp(t, "--log-level", "invalid", "list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid log level")
	})

	t.Run("log-level flag has alias -l", func(t *testing.T) {
		app := &cli.App{
			Name: "test",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:    "log-level",
					Aliases: []string{"l"},
					Value:   "info",
				},
			},
			Before: setupLogger,
			Action: func(c *cli.Context) error {
				assert.Equal(t, "debug", c.String("log-level"))
				return nil
			},
		}

		err := app.Run([]string{"test", "-l", "debug"})
		require.NoError(t, err)
	})
}

// captureConfig appends a command to app that records the AI config built
// from the global flags.
func captureConfig(app *cli.App, config **ai.Config) {
	app.Commands = append(app.Commands, &cli.Command{
		Name: "capture",
		Action: func(c *cli.Context) error {
			*config = aiConfig(c)
			return nil
		},
	})
}

func TestAIConfigFromFlags(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		var config *ai.Config
		app := newApp()
		app.ErrWriter = &syncBuffer{}
		captureConfig(app, &config)

		require.NoError(t, app.Run([]string{"docent", "capture"}))
		require.NotNil(t, config)
		defaults := ai.DefaultConfig()
		assert.Equal(t, defaults.VisionHost, config.VisionHost)
		assert.Equal(t, defaults.VisionHost, config.OCRHost)
		assert.Equal(t, defaults.VisionModel, config.OCRModel)
		assert.Equal(t, ai.OCRBackendVision, config.OCRBackend)
	})

	t.Run("ocr overrides", func(t *testing.T) {
		var config *ai.Config
		app := newApp()
		app.ErrWriter = &syncBuffer{}
		captureConfig(app, &config)

		err := app.Run([]string{"docent",
			"--vision-host", "http://vision:8000/v1",
			"--vision-model", "qwen-vl",
			"--ocr-host", "http://ocr:8001/v1",
			"--ocr-model", "got-ocr",
			"--api-key", "secret",
			"capture",
		})
		require.NoError(t, err)
		assert.Equal(t, "http://vision:8000/v1", config.VisionHost)
		assert.Equal(t, "http://ocr:8001/v1", config.OCRHost)
		assert.Equal(t, "qwen-vl", config.VisionModel)
		assert.Equal(t, "got-ocr", config.OCRModel)
		assert.Equal(t, "secret", config.APIKey)
	})

	t.Run("ocr model follows vision model", func(t *testing.T) {
		var config *ai.Config
		app := newApp()
		app.ErrWriter = &syncBuffer{}
		captureConfig(app, &config)

		require.NoError(t, app.Run([]string{"docent", "--vision-model", "qwen-vl", "capture"}))
		assert.Equal(t, "qwen-vl", config.OCRModel)
	})
}

func TestLoadEnv(t *testing.T) {
	t.Run("values from env file fill unset flags", func(t *testing.T) {
		const key = "DOCENT_VISION_MODEL"
		_, present := os.LookupEnv(key)
		if present {
			t.Skipf("%s is already set", key)
		}
		t.Cleanup(func() { os.Unsetenv(key) })

		envFile := writeFile(t, t.TempDir(), "test.env", key+"=from-env-file\n")

		var config *ai.Config
		app := newApp()
		app.ErrWriter = &syncBuffer{}
		captureConfig(app, &config)

		require.NoError(t, app.Run([]string{"docent", "--env-file", envFile, "capture"}))
		assert.Equal(t, "from-env-file", config.VisionModel)
	})

	t.Run("command line wins over env file", func(t *testing.T) {
		const key = "DOCENT_OCR_LANGUAGE"
		if _, present := os.LookupEnv(key); present {
			t.Skipf("%s is already set", key)
		}
		t.Cleanup(func() { os.Unsetenv(key) })

		envFile := writeFile(t, t.TempDir(), "test.env", key+"=deu\n")

		var config *ai.Config
		app := newApp()
		app.ErrWriter = &syncBuffer{}
		captureConfig(app, &config)

		require.NoError(t, app.Run([]string{"docent", "--env-file", envFile, "--ocr-language", "fra", "capture"}))
		assert.Equal(t, "fra", config.OCRLanguage)
	})

	t.Run("explicit missing env file is an error", func(t *testing.T) {
		_, _, err := runApp(t, "--env-file", filepath.Join(t.TempDir(), "missing.env"), "list")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load env file")
	})
}

func TestIngestAndManageChats(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	report := writeFile(t, dir, "report.txt", "Quarterly revenue grew in the north region.")
	minutes := writeFile(t, dir, "minutes.txt", "Minutes of the board meeting.")
	binary := filepath.Join(dir, "data.bin")
	require.NoError(t, os.WriteFile(binary, []byte{0x00, 0x01, 0x02, 0xff, 0xfe}, 0o644))

	out, errOut, err := runApp(t, "--db", dbPath, "ingest", "--pool-size", "2", report, minutes, binary)
	require.NoError(t, err)
	assert.Contains(t, out, "report.txt")
	assert.Contains(t, out, "minutes.txt")
	assert.Contains(t, out, "ready")
	assert.NotContains(t, out, "data.bin")
	assert.Contains(t, errOut, "data.bin")

	chats := chatsByTitle(t, dbPath)
	require.Len(t, chats, 2)
	reportChat := chats["report.txt"]
	require.NotNil(t, reportChat)
	assert.Equal(t, "Quarterly revenue grew in the north region.", reportChat.FullText)
	id := reportChat.Id.String()

	t.Run("list", func(t *testing.T) {
		out, _, err := runApp(t, "--db", dbPath, "list")
		require.NoError(t, err)
		assert.Contains(t, out, "report.txt")
		assert.Contains(t, out, "minutes.txt")
	})

	t.Run("show", func(t *testing.T) {
		out, _, err := runApp(t, "--db", dbPath, "show", id)
		require.NoError(t, err)
		assert.Contains(t, out, fmt.Sprintf("Chat %s: report.txt (ready)", id))
		assert.Contains(t, out, "Quarterly revenue grew")
		assert.Contains(t, out, "Finished processing report.txt")
	})

	t.Run("search", func(t *testing.T) {
		out, errOut, err := runApp(t, "--db", dbPath, "search", "--explain", "north", "revenue")
		require.NoError(t, err)
		assert.Contains(t, out, "report.txt")
		assert.NotContains(t, out, "minutes.txt")
		assert.Contains(t, errOut, "1 results")

		out, _, err = runApp(t, "--db", dbPath, "search", "south")
		require.NoError(t, err)
		assert.Contains(t, out, "No matching chats")

		_, _, err = runApp(t, "--db", dbPath, "search", "the")
		assert.Error(t, err)
	})

	t.Run("rename", func(t *testing.T) {
		out, _, err := runApp(t, "--db", dbPath, "rename", id, "Revenue", "notes")
		require.NoError(t, err)
		assert.Contains(t, out, `renamed to "Revenue notes"`)
		assert.Contains(t, chatsByTitle(t, dbPath), "Revenue notes")
	})

	t.Run("remove-file", func(t *testing.T) {
		_, _, err := runApp(t, "--db", dbPath, "remove-file", id)
		require.NoError(t, err)

		out, _, err := runApp(t, "--db", dbPath, "show", id)
		require.NoError(t, err)
		assert.Contains(t, out, "(empty)")
		assert.NotContains(t, out, "Quarterly")
	})

	t.Run("delete", func(t *testing.T) {
		out, _, err := runApp(t, "--db", dbPath, "delete", id)
		require.NoError(t, err)
		assert.Contains(t, out, "deleted")

		_, _, err = runApp(t, "--db", dbPath, "show", id)
		assert.Error(t, err)
		assert.Len(t, chatsByTitle(t, dbPath), 1)
	})

	t.Run("invalid id", func(t *testing.T) {
		_, _, err := runApp(t, "--db", dbPath, "show", "abc")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid chat ID")
	})
}

func TestRecoverCommand(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "db")

	db, err := docent.NewDatabase(dbPath)
	require.NoError(t, err)
	stale, err := db.ChatRepository().CreateChat(context.Background(), &core.Chat{
		Title:    "scan.pdf",
		File:     &core.FileInfo{Name: "scan.pdf", MediaType: "application/pdf"},
		FullText: "Processing scan.pdf...",
	})
	require.NoError(t, err)
	require.NoError(t, db.Close())

	_, errOut, err := runApp(t, "--db", dbPath, "recover")
	require.NoError(t, err)
	assert.Contains(t, errOut, "Settling 1 interrupted chats")

	chat := chatsByTitle(t, dbPath)["scan.pdf"]
	require.NotNil(t, chat)
	assert.Equal(t, stale.Id, chat.Id)
	assert.True(t, chat.ProcessingComplete)
	assert.True(t, chat.ProcessingError)
}

func TestClassifyCommand(t *testing.T) {
	dir := t.TempDir()
	text := writeFile(t, dir, "notes.txt", "plain words")
	binary := filepath.Join(dir, "blob.bin")
	require.NoError(t, os.WriteFile(binary, []byte{0x00, 0x01, 0x02, 0xff}, 0o644))

	out, _, err := runApp(t, "classify", text, binary)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "text/plain")
	assert.Contains(t, lines[1], "text")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[1]), "true"))
	assert.Contains(t, lines[2], "unsupported")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(lines[2]), "false"))
}

func TestOversizedFileRejected(t *testing.T) {
	dir := t.TempDir()
	dbPath := filepath.Join(dir, "db")
	big := filepath.Join(dir, "big.txt")
	f, err := os.Create(big)
	require.NoError(t, err)
	require.NoError(t, f.Truncate(core.MaxUploadSize+1))
	require.NoError(t, f.Close())
	small := writeFile(t, dir, "small.txt", "fits easily")

	artifact, err := readArtifact(big)
	assert.Nil(t, artifact)
	var validationErr *core.ValidationError
	require.ErrorAs(t, err, &validationErr)
	assert.Contains(t, validationErr.Message, "exceeds the 15MB limit")

	out, _, err := runApp(t, "classify", big)
	require.NoError(t, err)
	assert.Contains(t, out, "big.txt")
	assert.True(t, strings.HasSuffix(strings.TrimSpace(out), "false"))

	out, errOut, err := runApp(t, "--db", dbPath, "ingest", big, small)
	require.NoError(t, err)
	assert.Contains(t, errOut, "big.txt: File size")
	assert.Contains(t, out, "small.txt")

	chats := chatsByTitle(t, dbPath)
	require.Len(t, chats, 1)
	assert.Contains(t, chats, "small.txt")
}

func TestExtractCommand(t *testing.T) {
	path := writeFile(t, t.TempDir(), "notes.txt", "hello from a text file")

	out, _, err := runApp(t, "extract", path)
	require.NoError(t, err)
	assert.Equal(t, "hello from a text file\n", out)

	_, _, err = runApp(t, "extract")
	assert.Error(t, err)
}

func TestMain(m *testing.M) {
	code := m.Run()
	os.Exit(code)
}
