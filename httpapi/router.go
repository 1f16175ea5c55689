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


package httpapi

import (
	"log/slog"
	"time"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes registers all the routes of the API.
func RegisterRoutes(router *gin.Engine, api *API) {
	// All routes will be under /api/v1
	v1 := router.Group("/api/v1")

	chats := v1.Group("/chats")
	{
		chats.POST("", api.CreateChatHandler)
		chats.GET("", api.ListChatsHandler)
		chats.GET("/:id", api.GetChatHandler)
		chats.GET("/:id/status", api.StatusHandler)
		chats.PATCH("/:id", api.RenameChatHandler)
		chats.POST("/:id/messages", api.AppendMessageHandler)
		chats.PUT("/:id/messages/:index", api.EditMessageHandler)
		chats.DELETE("/:id/file", api.RemoveFileHandler)
		chats.DELETE("/:id", api.DeleteChatHandler)
	}

	v1.GET("/search", api.SearchHandler)
}

// multipartOverhead leaves room for form fields and part framing around
// the largest accepted file.
const multipartOverhead = 1 << 20

// NewRouter builds a gin engine serving api.
func NewRouter(api *API) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), RequestLogger(api.logger))
	router.MaxMultipartMemory = api.maxUploadSize + multipartOverhead
	RegisterRoutes(router, api)
	return router
}

// RequestLogger logs every request through logger.
func RequestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		attrs := []any{
			"method", c.Request.Method,
			"path", c.FullPath(),
			"status", c.Writer.Status(),
			"latency", time.Since(start),
		}
		switch {
		case c.Writer.Status() >= 500:
			logger.Error("request", attrs...)
		case c.Writer.Status() >= 400:
			logger.Warn("request", attrs...)
		default:
			logger.Info("request", attrs...)
		}
	}
}
