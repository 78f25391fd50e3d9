package domain

import "time"

// ChatMessage is one line of a live-chat transcript.
type ChatMessage struct {
	ID        int64
	SessionID string
	Message   string
	IsUser    bool
	CreatedAt time.Time
}
