package model

import "time"

// UserStatus holds the latest prompt sent to a workspace member.
// It is overwritten by every dispatch cycle that targets the member.
type UserStatus struct {
	UserID    UserID
	Status    string
	UpdatedAt time.Time
}
