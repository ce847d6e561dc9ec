package domain

import (
	"cmp"
	"time"
)

// MaxMessageLength is counted in code points.
const MaxMessageLength = 1000

// Message represents an immutable chat message as served by the backend.
type Message struct {
	ID        int64
	Author    string
	Text      string
	CreatedAt time.Time
}

// CompareMessages orders messages by creation time, ties broken by id.
func CompareMessages(a, b Message) int {
	if c := a.CreatedAt.Compare(b.CreatedAt); c != 0 {
		return c
	}
	return cmp.Compare(a.ID, b.ID)
}

// Page is one window of the feed along with the total number of messages
// known to the backend.
type Page struct {
	Messages []Message
	Total    int
}
