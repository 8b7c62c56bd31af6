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

type userResponseRepository struct {
	client           *firestore.Client
	collectionPrefix string
}

var _ interfaces.UserResponseRepository = &userResponseRepository{}

func newUserResponseRepository(client *firestore.Client) *userResponseRepository {
	return &userResponseRepository{
		client: client,
	}
}

type userResponseDoc struct {
	UserID    string    `firestore:"user_id"`
	Response  string    `firestore:"response"`
	UpdatedAt time.Time `firestore:"updated_at"`
}

func (r *userResponseRepository) collection() *firestore.CollectionRef {
	return r.client.Collection(collectionName(r.collectionPrefix, userResponsesCollection))
}

func (r *userResponseRepository) fromDoc(doc *userResponseDoc) *model.UserResponse {
	return &model.UserResponse{
		UserID:    model.UserID(doc.UserID),
		Response:  doc.Response,
		UpdatedAt: doc.UpdatedAt,
	}
}

func (r *userResponseRepository) Upsert(ctx context.Context, resp *model.UserResponse) error {
	if resp == nil || resp.UserID == "" {
		return goerr.New("user response requires user ID")
	}

	doc := &userResponseDoc{
		UserID:    string(resp.UserID),
		Response:  resp.Response,
		UpdatedAt: resp.UpdatedAt,
	}
	if doc.UpdatedAt.IsZero() {
		doc.UpdatedAt = time.Now().UTC()
	}

	if _, err := r.collection().Doc(doc.UserID).Set(ctx, doc); err != nil {
		return goerr.Wrap(err, "failed to upsert user response", goerr.V("user_id", resp.UserID))
	}
	return nil
}

func (r *userResponseRepository) Get(ctx context.Context, userID model.UserID) (*model.UserResponse, error) {
	snap, err := r.collection().Doc(string(userID)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, goerr.Wrap(ErrNotFound, "user response not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user response", goerr.V("user_id", userID))
	}

	var doc userResponseDoc
	if err := snap.DataTo(&doc); err != nil {
		return nil, goerr.Wrap(err, "failed to decode user response", goerr.V("user_id", userID))
	}
	return r.fromDoc(&doc), nil
}

func (r *userResponseRepository) List(ctx context.Context) ([]*model.UserResponse, error) {
	iter := r.collection().OrderBy(firestore.DocumentID, firestore.Asc).Documents(ctx)
	defer iter.Stop()

	var result []*model.UserResponse
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, goerr.Wrap(err, "failed to iterate user responses")
		}

		var doc userResponseDoc
		if err := snap.DataTo(&doc); err != nil {
			return nil, goerr.Wrap(err, "failed to decode user response", goerr.V("doc_id", snap.Ref.ID))
		}
		result = append(result, r.fromDoc(&doc))
	}
	return result, nil
}
