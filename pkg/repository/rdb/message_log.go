package rdb

import (
	"context"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/utils/safe"
)

type messageLogRepository struct {
	r *RDB
}

var _ interfaces.MessageLogRepository = &messageLogRepository{}

func (x *messageLogRepository) Append(ctx context.Context, entry *model.MessageLogEntry) error {
	if entry == nil || entry.ID == "" {
		return goerr.New("message log entry requires ID")
	}

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}

	query := `INSERT INTO message_logs (id, user_id, channel_id, text, created_at) VALUES (?, ?, ?, ?, ?)`
	if _, err := x.r.db.ExecContext(ctx, x.r.rebind(query),
		string(entry.ID), string(entry.UserID), entry.ChannelID, entry.Text, createdAt.UTC()); err != nil {
		return goerr.Wrap(err, "failed to append message log", goerr.V("id", entry.ID))
	}
	return nil
}

func (x *messageLogRepository) List(ctx context.Context, channelID string, limit int) ([]*model.MessageLogEntry, error) {
	query := `SELECT id, user_id, channel_id, text, created_at FROM message_logs
WHERE channel_id = ? ORDER BY created_at DESC, id DESC`
	args := []any{channelID}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := x.r.db.QueryContext(ctx, x.r.rebind(query), args...)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list message logs", goerr.V("channel_id", channelID))
	}
	defer safe.Close(ctx, rows)

	var result []*model.MessageLogEntry
	for rows.Next() {
		var (
			id, userID string
			entry      model.MessageLogEntry
		)
		if err := rows.Scan(&id, &userID, &entry.ChannelID, &entry.Text, &entry.CreatedAt); err != nil {
			return nil, goerr.Wrap(err, "failed to scan message log")
		}
		entry.ID = model.MessageLogID(id)
		entry.UserID = model.UserID(userID)
		entry.CreatedAt = entry.CreatedAt.UTC()
		result = append(result, &entry)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate message logs", goerr.V("channel_id", channelID))
	}
	return result, nil
}
