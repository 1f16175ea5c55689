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


// Package recovery settles chats left processing by a run that no longer
// exists.
//
// Extraction state lives only in the process that scheduled it. When that
// process exits mid-run, the chat stays in the processing state forever.
// Recoverer finds such chats and applies a terminal failure so the user can
// remove the file or upload it again.
//
// Run it only when no ingestion pipeline is active on the same database,
// typically at startup before any upload is accepted.
package recovery
