package firestore

import (
	"context"
	"errors"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
)

// ErrNotFound is returned when a document does not exist
var ErrNotFound = errors.New("not found")

const (
	userStatusesCollection  = "user_statuses"
	userResponsesCollection = "user_responses"
	messageLogsCollection   = "message_logs"
)

type Firestore struct {
	client       *firestore.Client
	userStatus   *userStatusRepository
	userResponse *userResponseRepository
	messageLog   *messageLogRepository
}

var _ interfaces.Repository = &Firestore{}

type Option func(*Firestore)

// WithCollectionPrefix prepends prefix and "_" to every collection name
func WithCollectionPrefix(prefix string) Option {
	return func(f *Firestore) {
		f.userStatus.collectionPrefix = prefix
		f.userResponse.collectionPrefix = prefix
		f.messageLog.collectionPrefix = prefix
	}
}

// New connects to databaseID of projectID. Empty databaseID selects the default database.
func New(ctx context.Context, projectID, databaseID string, opts ...Option) (*Firestore, error) {
	if projectID == "" {
		return nil, goerr.New("firestore project ID is required")
	}
	if databaseID == "" {
		databaseID = firestore.DefaultDatabaseID
	}

	client, err := firestore.NewClientWithDatabase(ctx, projectID, databaseID)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to create firestore client",
			goerr.V("projectID", projectID),
			goerr.V("databaseID", databaseID))
	}

	f := &Firestore{
		client:       client,
		userStatus:   newUserStatusRepository(client),
		userResponse: newUserResponseRepository(client),
		messageLog:   newMessageLogRepository(client),
	}

	for _, opt := range opts {
		opt(f)
	}

	return f, nil
}

func (f *Firestore) UserStatus() interfaces.UserStatusRepository {
	return f.userStatus
}

func (f *Firestore) UserResponse() interfaces.UserResponseRepository {
	return f.userResponse
}

func (f *Firestore) MessageLog() interfaces.MessageLogRepository {
	return f.messageLog
}

func (f *Firestore) Close() error {
	if f.client != nil {
		return f.client.Close()
	}
	return nil
}

func collectionName(prefix, name string) string {
	if prefix != "" {
		return prefix + "_" + name
	}
	return name
}

// MessageLogCollection returns the message log collection name for prefix.
// Index migration needs it to target the same collection as the repository.
func MessageLogCollection(prefix string) string {
	return collectionName(prefix, messageLogsCollection)
}
