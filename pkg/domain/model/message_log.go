package model

import (
	"time"

	"github.com/google/uuid"
)

// MessageLogID identifies a MessageLogEntry
type MessageLogID string

// NewMessageLogID returns a time-ordered unique ID
func NewMessageLogID() MessageLogID {
	return MessageLogID(uuid.Must(uuid.NewV7()).String())
}

// MessageLogEntry is an append-only record of a passively observed message
type MessageLogEntry struct {
	ID        MessageLogID
	UserID    UserID
	ChannelID string
	Text      string
	CreatedAt time.Time
}

// NewMessageLogEntry builds an entry with a fresh ID and creation time
func NewMessageLogEntry(userID UserID, channelID, text string) *MessageLogEntry {
	return &MessageLogEntry{
		ID:        NewMessageLogID(),
		UserID:    userID,
		ChannelID: channelID,
		Text:      text,
		CreatedAt: time.Now().UTC(),
	}
}
