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


// Package httpapi exposes docent over HTTP with gin.
//
// Uploads are multipart requests with a "file" part. The response is sent
// as soon as the chat exists; clients poll the chat until
// processingComplete is true.
//
//	POST   /api/v1/chats                      upload a file, or create an empty chat
//	GET    /api/v1/chats                      list chats, newest first
//	GET    /api/v1/chats/:id                  fetch one chat
//	GET    /api/v1/chats/:id/status           in-flight extraction, if any
//	PATCH  /api/v1/chats/:id                  rename
//	POST   /api/v1/chats/:id/messages         append a message
//	PUT    /api/v1/chats/:id/messages/:index  edit a message, dropping later ones
//	DELETE /api/v1/chats/:id/file             remove the attached file
//	DELETE /api/v1/chats/:id                  delete the chat
//	GET    /api/v1/search?q=                  keyword search
package httpapi
