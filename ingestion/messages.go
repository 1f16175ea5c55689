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


package ingestion

import (
	"context"
	"errors"
	"fmt"

	"github.com/poiesic/docent/core"
	"github.com/poiesic/docent/extract"
)

const (
	imageNotice = "🖼️ I can see you've uploaded an image! I'm currently analyzing it to extract any text and understand the visual content. " +
		"This may take a moment. Once processing is complete, you can ask me questions about what's in the image."
	documentNotice = "📄 I can see you've uploaded a document! I'm currently processing it to extract the text content. " +
		"This may take a moment. Once processing is complete, you can ask me questions about the document."

	timeoutReason = "Processing timed out. Please try again with a smaller file."
	genericReason = "An unexpected error occurred while processing the file."
	// InterruptedReason explains a chat whose extraction was lost when the
	// process exited mid-run.
	InterruptedReason = "Processing was interrupted. Please upload the file again."
)

func uploadNotice(format extract.Format) string {
	if format == extract.FormatImage {
		return imageNotice
	}
	return documentNotice
}

func placeholderText(name string) string {
	return fmt.Sprintf("Processing %s...", name)
}

func successText(name string, format extract.Format) string {
	subject := "the document"
	if format == extract.FormatImage {
		subject = "the image"
	}
	return fmt.Sprintf("✅ Finished processing %s. You can now ask me questions about %s.", name, subject)
}

func failureText(name, reason string) string {
	return fmt.Sprintf("❌ I couldn't process %s: %s", name, reason)
}

// failureReason picks the explanation shown to the user for err.
func failureReason(err error) string {
	var extractionErr *extract.ExtractionError
	switch {
	case errors.As(err, &extractionErr) && extractionErr.Message != "":
		return extractionErr.Message
	case errors.Is(err, context.DeadlineExceeded):
		return timeoutReason
	default:
		return genericReason
	}
}

// completionFor builds the terminal write for an extraction outcome.
func completionFor(file *core.FileInfo, format extract.Format, text string, err error) core.Completion {
	if err != nil {
		reason := failureReason(err)
		return core.Completion{
			File:     file,
			FullText: reason,
			Failed:   true,
			Message:  core.Message{Sender: core.SenderAI, Text: failureText(file.Name, reason)},
		}
	}
	return core.Completion{
		File:     file,
		FullText: text,
		Message:  core.Message{Sender: core.SenderAI, Text: successText(file.Name, format)},
	}
}

// InterruptedCompletion is the terminal write for a chat whose extraction
// will never finish because the run that owned it is gone.
func InterruptedCompletion(file *core.FileInfo) core.Completion {
	return core.Completion{
		FullText: InterruptedReason,
		Failed:   true,
		Message:  core.Message{Sender: core.SenderAI, Text: failureText(file.Name, InterruptedReason)},
	}
}
