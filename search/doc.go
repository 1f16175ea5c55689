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


// Package search provides keyword search over chats.
//
// A chat matches when every query word, after lowercasing, punctuation
// trimming and stop-word removal, appears in its title or its extracted
// text. Matches are ranked by how often the query words occur, with title
// hits weighted higher. Chats still processing, or whose extraction failed,
// are matched on their title only.
//
// Results carry a short snippet of the extracted text around the first hit
// so callers can use them as grounding context.
package search
