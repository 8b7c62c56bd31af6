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

type userStatusRepository struct {
	mu       sync.RWMutex
	statuses map[model.UserID]*model.UserStatus
}

var _ interfaces.UserStatusRepository = &userStatusRepository{}

func newUserStatusRepository() *userStatusRepository {
	return &userStatusRepository{
		statuses: make(map[model.UserID]*model.UserStatus),
	}
}

func (r *userStatusRepository) Upsert(ctx context.Context, status *model.UserStatus) error {
	if status == nil || status.UserID == "" {
		return goerr.New("user status requires user ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// Store a copy to prevent external modifications
	stored := *status
	if stored.UpdatedAt.IsZero() {
		stored.UpdatedAt = time.Now().UTC()
	}
	r.statuses[status.UserID] = &stored
	return nil
}

func (r *userStatusRepository) Get(ctx context.Context, userID model.UserID) (*model.UserStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	status, ok := r.statuses[userID]
	if !ok {
		return nil, goerr.Wrap(ErrNotFound, "user status not found", goerr.V("user_id", userID))
	}

	copied := *status
	return &copied, nil
}

func (r *userStatusRepository) List(ctx context.Context) ([]*model.UserStatus, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]*model.UserStatus, 0, len(r.statuses))
	for _, status := range r.statuses {
		copied := *status
		result = append(result, &copied)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].UserID < result[j].UserID })
	return result, nil
}
