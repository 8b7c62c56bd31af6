package usecase_test

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/slack-go/slack"
)

type sentMessage struct {
	ChannelID  string
	Text       string
	Attachment *slack.Attachment
	At         time.Time
}

type mockSlackService struct {
	listUsersFn    func(ctx context.Context) ([]*slacksvc.User, error)
	getBotUserIDFn func(ctx context.Context) (string, error)
	sendMessageFn  func(ctx context.Context, channelID, text string, attachment *slack.Attachment) (string, error)

	mu        sync.Mutex
	sent      []sentMessage
	listCalls int
}

var _ slacksvc.Service = &mockSlackService{}

func newMockSlackService(userIDs ...string) *mockSlackService {
	users := make([]*slacksvc.User, len(userIDs))
	for i, id := range userIDs {
		users[i] = &slacksvc.User{ID: id}
	}
	return &mockSlackService{
		listUsersFn: func(ctx context.Context) ([]*slacksvc.User, error) {
			return users, nil
		},
		getBotUserIDFn: func(ctx context.Context) (string, error) {
			return "UBOT", nil
		},
	}
}

func (m *mockSlackService) ListUsers(ctx context.Context) ([]*slacksvc.User, error) {
	m.mu.Lock()
	m.listCalls++
	m.mu.Unlock()

	if m.listUsersFn != nil {
		return m.listUsersFn(ctx)
	}
	return nil, nil
}

func (m *mockSlackService) GetBotUserID(ctx context.Context) (string, error) {
	if m.getBotUserIDFn != nil {
		return m.getBotUserIDFn(ctx)
	}
	return "UBOT", nil
}

func (m *mockSlackService) SendMessage(ctx context.Context, channelID, text string, attachment *slack.Attachment) (string, error) {
	if m.sendMessageFn != nil {
		if _, err := m.sendMessageFn(ctx, channelID, text, attachment); err != nil {
			return "", err
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, sentMessage{
		ChannelID:  channelID,
		Text:       text,
		Attachment: attachment,
		At:         time.Now(),
	})
	return "1700000000.000100", nil
}

func (m *mockSlackService) Sent() []sentMessage {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMessage(nil), m.sent...)
}

func (m *mockSlackService) ListCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.listCalls
}

// noWait is a throttle that never blocks
type noWait struct{}

func (noWait) Wait(ctx context.Context) error { return nil }

var errStoreDown = errors.New("store is down")

// failingRepository wraps a repository and fails writes for selected users
type failingRepository struct {
	interfaces.Repository
	failStatusFor   map[model.UserID]bool
	failResponse    bool
	failMessageLog  bool
	responseUpserts int
	mu              sync.Mutex
}

func (r *failingRepository) UserStatus() interfaces.UserStatusRepository {
	return &failingUserStatusRepository{UserStatusRepository: r.Repository.UserStatus(), parent: r}
}

func (r *failingRepository) UserResponse() interfaces.UserResponseRepository {
	return &failingUserResponseRepository{UserResponseRepository: r.Repository.UserResponse(), parent: r}
}

func (r *failingRepository) MessageLog() interfaces.MessageLogRepository {
	return &failingMessageLogRepository{MessageLogRepository: r.Repository.MessageLog(), parent: r}
}

func (r *failingRepository) ResponseUpserts() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.responseUpserts
}

type failingUserStatusRepository struct {
	interfaces.UserStatusRepository
	parent *failingRepository
}

func (r *failingUserStatusRepository) Upsert(ctx context.Context, status *model.UserStatus) error {
	if r.parent.failStatusFor[status.UserID] {
		return errStoreDown
	}
	return r.UserStatusRepository.Upsert(ctx, status)
}

type failingUserResponseRepository struct {
	interfaces.UserResponseRepository
	parent *failingRepository
}

func (r *failingUserResponseRepository) Upsert(ctx context.Context, resp *model.UserResponse) error {
	r.parent.mu.Lock()
	r.parent.responseUpserts++
	r.parent.mu.Unlock()

	if r.parent.failResponse {
		return errStoreDown
	}
	return r.UserResponseRepository.Upsert(ctx, resp)
}

type failingMessageLogRepository struct {
	interfaces.MessageLogRepository
	parent *failingRepository
}

func (r *failingMessageLogRepository) Append(ctx context.Context, entry *model.MessageLogEntry) error {
	if r.parent.failMessageLog {
		return errStoreDown
	}
	return r.MessageLogRepository.Append(ctx, entry)
}
