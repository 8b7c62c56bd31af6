package memory

import (
	"errors"

	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
)

// ErrNotFound is returned when a record does not exist
var ErrNotFound = errors.New("not found")

// Memory is an in-process repository for development and tests
type Memory struct {
	userStatus   *userStatusRepository
	userResponse *userResponseRepository
	messageLog   *messageLogRepository
}

var _ interfaces.Repository = &Memory{}

func New() *Memory {
	return &Memory{
		userStatus:   newUserStatusRepository(),
		userResponse: newUserResponseRepository(),
		messageLog:   newMessageLogRepository(),
	}
}

func (m *Memory) UserStatus() interfaces.UserStatusRepository {
	return m.userStatus
}

func (m *Memory) UserResponse() interfaces.UserResponseRepository {
	return m.userResponse
}

func (m *Memory) MessageLog() interfaces.MessageLogRepository {
	return m.messageLog
}

func (m *Memory) Close() error {
	return nil
}
