package rdb

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/utils/safe"
)

type userStatusRepository struct {
	r *RDB
}

var _ interfaces.UserStatusRepository = &userStatusRepository{}

const upsertUserStatusQuery = `INSERT INTO user_statuses (user_id, status, updated_at) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET status = excluded.status, updated_at = excluded.updated_at`

func (x *userStatusRepository) Upsert(ctx context.Context, st *model.UserStatus) error {
	if st == nil || st.UserID == "" {
		return goerr.New("user status requires user ID")
	}

	updatedAt := st.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := x.r.db.ExecContext(ctx, x.r.rebind(upsertUserStatusQuery),
		string(st.UserID), st.Status, updatedAt.UTC()); err != nil {
		return goerr.Wrap(err, "failed to upsert user status", goerr.V("user_id", st.UserID))
	}
	return nil
}

func (x *userStatusRepository) Get(ctx context.Context, userID model.UserID) (*model.UserStatus, error) {
	row := x.r.db.QueryRowContext(ctx,
		x.r.rebind(`SELECT user_id, status, updated_at FROM user_statuses WHERE user_id = ?`),
		string(userID))

	st, err := scanUserStatus(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "user status not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user status", goerr.V("user_id", userID))
	}
	return st, nil
}

func (x *userStatusRepository) List(ctx context.Context) ([]*model.UserStatus, error) {
	rows, err := x.r.db.QueryContext(ctx,
		`SELECT user_id, status, updated_at FROM user_statuses ORDER BY user_id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user statuses")
	}
	defer safe.Close(ctx, rows)

	var result []*model.UserStatus
	for rows.Next() {
		st, err := scanUserStatus(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan user status")
		}
		result = append(result, st)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate user statuses")
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUserStatus(s scanner) (*model.UserStatus, error) {
	var (
		userID string
		st     model.UserStatus
	)
	if err := s.Scan(&userID, &st.Status, &st.UpdatedAt); err != nil {
		return nil, err
	}
	st.UserID = model.UserID(userID)
	st.UpdatedAt = st.UpdatedAt.UTC()
	return &st, nil
}
