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


// Package storage provides the storage abstraction layer for docent.
//
// This package defines the ChatRepository interface that decouples the
// conversation record store from the ingestion pipeline. The orchestrator
// only ever talks to the store through field-level operations
// (CreateChat, AppendMessages, CompleteProcessing, ...), never by writing
// a whole chat back, so concurrent writers cannot erase each other's fields.
//
// # Constructor Return Type Pattern
//
// Public constructors in implementation packages return concrete types
// that are asserted against the interface at compile time:
//
//	var _ storage.ChatRepository = (*ChatRepository)(nil)
//
// Consumers depend on storage.ChatRepository and can swap in other
// backends or test doubles without modification.
//
// # Usage
//
// Open a repository:
//
//	backend, err := badger.OpenBackend("/path/to/db", false)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer backend.Close()
//	repo, err := badger.NewChatRepository(backend)
//
// Use in tests with in-memory storage:
//
//	repo, backend, err := badger.NewMemoryRepository()
//
// # Serialization
//
// Chats are encoded with mus-go varint and ordinal serializers, prefixed
// with a format version (see MarshalChat).
//
// # Thread Safety
//
// All repository implementations must be thread-safe and support
// concurrent access from multiple goroutines.
package storage
