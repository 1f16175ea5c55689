package search

import (
	"github.com/poiesic/docent/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to trace how a query was matched.
type SearchMonitor interface {
	Start(query string, words []string)
	AfterChatRetrieval(chats []*core.Chat)
	Hit(chat *core.Chat, score float32)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string, _ []string)        {}
func (n *noopMonitor) AfterChatRetrieval(_ []*core.Chat) {}
func (n *noopMonitor) Hit(_ *core.Chat, _ float32)       {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)     {}
