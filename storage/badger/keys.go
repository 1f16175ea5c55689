package badger

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/poiesic/docent/core"
)

// Key prefixes for different data types
const (
	chatPrefix        = "chat:"
	chatCreatedPrefix = "chatc:"
	chatIDSeq         = "chatseq"
)

// makeChatKey generates a key for a chat by ID.
func makeChatKey(id core.ID) []byte {
	return []byte(fmt.Sprintf("%s%d", chatPrefix, id))
}

// makeChatCreatedKey generates a composite key for the creation-time index.
// Format: prefix:timestamp:id
func makeChatCreatedKey(created time.Time, id core.ID) []byte {
	prefixBytes := []byte(chatCreatedPrefix)
	totalSize := len(prefixBytes) + 16 // 8 bytes for timestamp + 8 bytes for ID
	buf := make([]byte, totalSize)
	offset := copy(buf, prefixBytes)
	// Write in BigEndian order so lexicographic sort works correctly
	binary.BigEndian.PutUint64(buf[offset:], uint64(created.UnixMicro()))
	offset += 8
	binary.BigEndian.PutUint64(buf[offset:], uint64(id))
	return buf
}
