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

type userResponseRepository struct {
	r *RDB
}

var _ interfaces.UserResponseRepository = &userResponseRepository{}

const upsertUserResponseQuery = `INSERT INTO user_responses (user_id, response, updated_at) VALUES (?, ?, ?)
ON CONFLICT (user_id) DO UPDATE SET response = excluded.response, updated_at = excluded.updated_at`

func (x *userResponseRepository) Upsert(ctx context.Context, resp *model.UserResponse) error {
	if resp == nil || resp.UserID == "" {
		return goerr.New("user response requires user ID")
	}

	updatedAt := resp.UpdatedAt
	if updatedAt.IsZero() {
		updatedAt = time.Now()
	}

	if _, err := x.r.db.ExecContext(ctx, x.r.rebind(upsertUserResponseQuery),
		string(resp.UserID), resp.Response, updatedAt.UTC()); err != nil {
		return goerr.Wrap(err, "failed to upsert user response", goerr.V("user_id", resp.UserID))
	}
	return nil
}

func (x *userResponseRepository) Get(ctx context.Context, userID model.UserID) (*model.UserResponse, error) {
	row := x.r.db.QueryRowContext(ctx,
		x.r.rebind(`SELECT user_id, response, updated_at FROM user_responses WHERE user_id = ?`),
		string(userID))

	resp, err := scanUserResponse(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, goerr.Wrap(ErrNotFound, "user response not found", goerr.V("user_id", userID))
		}
		return nil, goerr.Wrap(err, "failed to get user response", goerr.V("user_id", userID))
	}
	return resp, nil
}

func (x *userResponseRepository) List(ctx context.Context) ([]*model.UserResponse, error) {
	rows, err := x.r.db.QueryContext(ctx,
		`SELECT user_id, response, updated_at FROM user_responses ORDER BY user_id`)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list user responses")
	}
	defer safe.Close(ctx, rows)

	var result []*model.UserResponse
	for rows.Next() {
		resp, err := scanUserResponse(rows)
		if err != nil {
			return nil, goerr.Wrap(err, "failed to scan user response")
		}
		result = append(result, resp)
	}
	if err := rows.Err(); err != nil {
		return nil, goerr.Wrap(err, "failed to iterate user responses")
	}
	return result, nil
}

func scanUserResponse(s scanner) (*model.UserResponse, error) {
	var (
		userID string
		resp   model.UserResponse
	)
	if err := s.Scan(&userID, &resp.Response, &resp.UpdatedAt); err != nil {
		return nil, err
	}
	resp.UserID = model.UserID(userID)
	resp.UpdatedAt = resp.UpdatedAt.UTC()
	return &resp, nil
}
