package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
)

type userResponseRepository struct {
	mu        sync.RWMutex
	responses map[model.UserID]*model.UserResponse
}

var _ interfaces.UserResponseRepository = &userResponseRepository{}

func newUserResponseRepository() *userResponseRepository {
	return &userResponseRepository{
		responses: make(map[model.UserID]*model.UserResponse),
	}
}

func (r *userResponseRepository) Upsert(ctx context.Context, resp *model.UserResponse) error {
	if resp == nil || resp.UserID == "" {
		return goerr.New("user response requires user ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	stored := *resp
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	r.responses[resp.UserID] = &stored
	return nil
}

func (r *userResponseRepository) Get(ctx context.Context, userID model.UserID) (*model.UserResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	resp, ok := r.responses[userID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user response not found", goerr.V("user_id", userID))
	}

	copied := *resp
	return &copied, nil
}

func (r *userResponseRepository) List(ctx context.Context) ([]*model.UserResponse, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.UserResponse, 0, len(r.responses))
	for _, resp := range r.responses {
		copied := *resp
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}
