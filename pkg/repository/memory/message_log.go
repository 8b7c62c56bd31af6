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

type messageLogRepository struct {
	mu      sync.RWMutex
	entries map[string][]*model.MessageLogEntry
}

var _ interfaces.MessageLogRepository = &messageLogRepository{}

func newMessageLogRepository() *messageLogRepository {
	return &messageLogRepository{
		entries: make(map[string][]*model.MessageLogEntry),
	}
}

func (r *messageLogRepository) Append(ctx context.Context, entry *model.MessageLogEntry) error {
	if entry == nil || entry.ID == "" {
		return goerr.New("message log entry requires ID")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.entries[entry.ChannelID] {
		if existing.ID == entry.ID {
			return goerr.New("message log entry already exists", goerr.V("id", entry.ID))
		}
	}

	stored := *entry
	if stored.CreatedAt.IsZero() {
		stored.CreatedAt = time.Now().UTC()
	}
	r.entries[entry.ChannelID] = append(r.entries[entry.ChannelID], &stored)
	return nil
}

func (r *messageLogRepository) List(ctx context.Context, channelID string, limit int) ([]*model.MessageLogEntry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entries := r.entries[channelID]
	result := make([]*model.MessageLogEntry, 0, len(entries))
	for _, entry := range entries {
		copied := *entry
		result = append(result, &copied)
	}

	// Newest first; IDs are time-ordered so they break ties
	sort.Slice(result, func(i, j int) bool {
		if !result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		}
		return result[i].ID > result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}
