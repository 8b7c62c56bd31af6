package interfaces

import (
	"context"

	"github.com/secmon-lab/rollcall/pkg/domain/model"
)

// Repository defines the interface for data persistence.
// Every backend must implement Upsert as an atomic insert-or-update by user ID.
type Repository interface {
	UserStatus() UserStatusRepository
	UserResponse() UserResponseRepository
	MessageLog() MessageLogRepository

	Close() error
}

// UserStatusRepository stores the latest prompt sent to each member
type UserStatusRepository interface {
	// Upsert creates or overwrites the status of status.UserID (last write wins)
	Upsert(ctx context.Context, status *model.UserStatus) error

	// Get returns the status of userID or a backend ErrNotFound
	Get(ctx context.Context, userID model.UserID) (*model.UserStatus, error)

	// List returns every stored status ordered by user ID
	List(ctx context.Context) ([]*model.UserStatus, error)
}

// UserResponseRepository stores the latest interactive response of each member
type UserResponseRepository interface {
	// Upsert creates or overwrites the response of resp.UserID (last write wins)
	Upsert(ctx context.Context, resp *model.UserResponse) error

	// Get returns the response of userID or a backend ErrNotFound
	Get(ctx context.Context, userID model.UserID) (*model.UserResponse, error)

	// List returns every stored response ordered by user ID
	List(ctx context.Context) ([]*model.UserResponse, error)
}

// MessageLogRepository is an append-only log of observed messages
type MessageLogRepository interface {
	// Append stores entry. Entries are never updated.
	Append(ctx context.Context, entry *model.MessageLogEntry) error

	// List returns entries of channelID, newest first. limit <= 0 means no limit.
	List(ctx context.Context, channelID string, limit int) ([]*model.MessageLogEntry, error)
}
