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
	"errors"
	"fmt"
	"io/fs"
	"log"
	"log/slog"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/poiesic/docent"
	"github.com/poiesic/docent/ai"
	"github.com/urfave/cli/v2"
)

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func newApp() *cli.App {
	defaults := ai.DefaultConfig()
	return &cli.App{
		Name:  "docent",
		Usage: "Turn documents and images into chats you can ask questions about",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "log-level",
				Aliases: []string{"l"},
				Usage:   "Set logging level (debug, info, warn, error)",
				Value:   "info",
			},
			&cli.StringFlag{
				Name:  "env-file",
				Usage: "Load environment variables from this file",
				Value: ".env",
			},
			&cli.StringFlag{
				Name:    "db",
				Aliases: []string{"d"},
				Usage:   "Path to BadgerDB database directory",
				Value:   "docent-data",
				EnvVars: []string{"DOCENT_DB"},
			},
			&cli.StringFlag{
				Name:    "vision-host",
				Usage:   "OpenAI-compatible host serving the vision model",
				Value:   defaults.VisionHost,
				EnvVars: []string{"DOCENT_VISION_HOST"},
			},
			&cli.StringFlag{
				Name:    "vision-model",
				Usage:   "Vision model used to describe images",
				Value:   defaults.VisionModel,
				EnvVars: []string{"DOCENT_VISION_MODEL"},
			},
			&cli.StringFlag{
				Name:    "ocr-backend",
				Usage:   "OCR backend (vision, tesseract)",
				Value:   defaults.OCRBackend,
				EnvVars: []string{"DOCENT_OCR_BACKEND"},
			},
			&cli.StringFlag{
				Name:    "ocr-host",
				Usage:   "OpenAI-compatible host serving the OCR model (defaults to vision-host)",
				EnvVars: []string{"DOCENT_OCR_HOST"},
			},
			&cli.StringFlag{
				Name:    "ocr-model",
				Usage:   "Model used to transcribe text in images (defaults to vision-model)",
				EnvVars: []string{"DOCENT_OCR_MODEL"},
			},
			&cli.StringFlag{
				Name:    "ocr-language",
				Usage:   "Tesseract language",
				Value:   defaults.OCRLanguage,
				EnvVars: []string{"DOCENT_OCR_LANGUAGE"},
			},
			&cli.StringFlag{
				Name:    "api-key",
				Usage:   "API key for the AI hosts",
				EnvVars: []string{"DOCENT_API_KEY"},
			},
		},
		Before: func(c *cli.Context) error {
			if err := loadEnv(c); err != nil {
				return err
			}
			return setupLogger(c)
		},
		Commands: []*cli.Command{
			ingestCommand(),
			listCommand(),
			showCommand(),
			renameCommand(),
			deleteCommand(),
			removeFileCommand(),
			searchCommand(),
			classifyCommand(),
			extractCommand(),
			recoverCommand(),
			serveCommand(),
		},
	}
}

// loadEnv loads the env file and applies its values to global flags that
// were not set on the command line. A missing default file is ignored.
func loadEnv(c *cli.Context) error {
	path := c.String("env-file")
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) && !c.IsSet("env-file") {
			return nil
		}
		return fmt.Errorf("failed to load env file %s: %w", path, err)
	}

	// Flags were resolved before the file was loaded
	for _, flag := range c.App.Flags {
		sf, ok := flag.(*cli.StringFlag)
		if !ok || c.IsSet(sf.Name) {
			continue
		}
		for _, env := range sf.EnvVars {
			if v, ok := os.LookupEnv(env); ok {
				if err := c.Set(sf.Name, v); err != nil {
					return err
				}
				break
			}
		}
	}
	return nil
}

func setupLogger(c *cli.Context) error {
	// Get log level from flag and normalize to lowercase
	levelStr := strings.ToLower(c.String("log-level"))

	// Map string to slog.Level
	var level slog.Level
	switch levelStr {
	case "debug":
		level = slog.LevelDebug
	case "info":
		level = slog.LevelInfo
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		return fmt.Errorf("invalid log level %q: must be one of debug, info, warn, error", levelStr)
	}

	// Configure slog with the specified level
	logger := slog.New(slog.NewTextHandler(c.App.ErrWriter, &slog.HandlerOptions{
		Level: level,
	}))
	slog.SetDefault(logger)

	return nil
}

// aiConfig builds the AI configuration from the global flags.
func aiConfig(c *cli.Context) *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithHost(c.String("vision-host")),
		ai.WithVisionModel(c.String("vision-model")),
		ai.WithOCRModel(c.String("vision-model")),
		ai.WithOCRBackend(c.String("ocr-backend")),
		ai.WithOCRLanguage(c.String("ocr-language")),
	}
	if host := c.String("ocr-host"); host != "" {
		opts = append(opts, ai.WithOCRHost(host))
	}
	if model := c.String("ocr-model"); model != "" {
		opts = append(opts, ai.WithOCRModel(model))
	}
	if key := c.String("api-key"); key != "" {
		opts = append(opts, ai.WithAPIKey(key))
	}
	return ai.NewConfig(opts...)
}

func openDatabase(c *cli.Context) (*docent.Database, error) {
	db, err := docent.NewDatabase(c.String("db"), docent.WithAIConfig(aiConfig(c)))
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return db, nil
}
