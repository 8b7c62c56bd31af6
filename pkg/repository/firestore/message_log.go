package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"google.golang.org/api/iterator"
)

type messageLogRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.MessageLogRepository = &messageLogRepository{}

func newMessageLogRepository(client *firestore.Client) *messageLogRepository {
	return &messageLogRepository{
		client: client,
	}
}

type messageLogDoc struct {
	ID        string    `firestore:"id"`
	UserID    string    `firestore:"user_id"`
	ChannelID string    `firestore:"channel_id"`
	Text      string    `firestore:"text"`
	CreatedAt time.Time `firestore:"created_at"`
}

func (r *messageLogRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, messageLogsCollection))
}

func (r *messageLogRepository) Append(ctx context.Context, entry *model.MessageLogEntry) error {
	if entry == nil || entry.ID == "" {
		return goerr.New("message log entry requires ID")
	}

	doc := &messageLogDoc{
		ID:        string(entry.ID),
		UserID:    string(entry.UserID),
		ChannelID: entry.ChannelID,
		Text:      entry.Text,
		CreatedAt: entry.CreatedAt,
	}
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = time.Now().UTC()
	}

	// Create fails if the ID already exists; entries are never overwritten
	if _, err := r.collection().Doc(doc.ID).Create(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to append message log", goerr.V("id", entry.ID))
	}
	return nil
}

// List requires the (channel_id ASC, created_at DESC) composite index created by the migrate command
func (r *messageLogRepository) List(ctx context.Context, channelID string, limit int) ([]*model.MessageLogEntry, error) {
	query := r.collection().
		Where("channel_id", "==", channelID).
		OrderBy("created_at", firestore.Desc)
	if limit > 0 {
		query = query.Limit(limit)
	}

	iter := query.Documents(ctx)
	defer iter.Stop()

	var result []*model.MessageLogEntry
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate message logs", goerr.V("channel_id", channelID))
		}

		var doc messageLogDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode message log", goerr.V("doc_id", snap.Ref.ID))
		}
		result = append(result, &model.MessageLogEntry{
			ID:        model.MessageLogID(doc.ID),
			UserID:    model.UserID(doc.UserID),
			ChannelID: doc.ChannelID,
			Text:      doc.Text,
			CreatedAt: doc.CreatedAt,
		})
	}
	return result, nil
}
