package firestore

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type userStatusRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserStatusRepository = &userStatusRepository{}

func newUserStatusRepository(client *firestore.Client) *userStatusRepository {
	return &userStatusRepository{
		client: client,
	}
}

// userStatusDoc is the Firestore persistence model
type userStatusDoc struct {
	UserID    string    `firestore:"user_id"`
	Status    string    `firestore:"status"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (r *userStatusRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, userStatusesCollection))
}

func (r *userStatusRepository) fromDoc(doc *userStatusDoc) *model.UserStatus {
	return &model.UserStatus{
		UserID:    model.UserID(doc.UserID),
		Status:    doc.Status,
		UpdatedAt: doc.UpdatedAt,
	}
}

// Upsert writes the whole document keyed by user ID, so concurrent writers never create duplicates
func (r *userStatusRepository) Upsert(ctx context.Context, st *model.UserStatus) error {
	if st == nil || st.UserID == "" {
		return goerr.New("user status requires user ID")
	}

	doc := &userStatusDoc{
		UserID:    string(st.UserID),
		Status:    st.Status,
		UpdatedAt: st.UpdatedAt,
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	if _, err := r.collection().Doc(doc.UserID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to upsert user status", goerr.V("user_id", st.UserID))
	}
	return nil
}

func (r *userStatusRepository) Get(ctx context.Context, userID model.UserID) (*model.UserStatus, error) {
	snap, err := r.collection().Doc(string(userID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user status not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user status", goerr.V("user_id", userID))
	}

	var doc userStatusDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user status", goerr.V("user_id", userID))
	}
	return r.fromDoc(&doc), nil
}

func (r *userStatusRepository) List(ctx context.Context) ([]*model.UserStatus, error) {
	iter := r.collection().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []*model.UserStatus
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate user statuses")
		}

		var doc userStatusDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user status", goerr.V("doc_id", snap.Ref.ID))
		}
		result = append(result, r.fromDoc(&doc))
	}
	return result, nil
}
