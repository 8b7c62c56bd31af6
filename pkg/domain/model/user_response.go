package model

import "time"

// UserResponse holds the latest interactive response of a workspace member.
// A UserResponse may exist without a matching UserStatus and vice versa.
type UserResponse struct {
	UserID    UserID
	Response  string
	UpdatedAt time.Time
}
