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


package extract

import (
	"path/filepath"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var extensionTypes = map[string]string{
	".pdf":  MediaTypePDF,
	".docx": MediaTypeDOCX,
	".doc":  MediaTypeDOC,
	".txt":  MediaTypeText,
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".bmp":  "image/bmp",
	".webp": "image/webp",
}

// SniffMediaType derives a media type for callers that have none, such as
// files read from disk. Content detection wins unless it only produced a
// generic container type, in which case the extension decides.
func SniffMediaType(name string, data []byte) string {
	detected := mimetype.Detect(data)
	base := baseMediaType(detected.String())

	switch base {
	case "application/octet-stream", "application/zip", "application/x-ole-storage":
		if mt, ok := extensionTypes[strings.ToLower(filepath.Ext(name))]; ok {
			return mt
		}
	}
	return detected.String()
}
