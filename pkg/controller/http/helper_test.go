package http_test

import (
	"context"
	"sync"

	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/slack-go/slack"
)

// stubSlackService accepts every call and records sent messages
type stubSlackService struct {
	mu      sync.Mutex
	sent    []string
	sendErr error
}

var _ slacksvc.Service = &stubSlackService{}

func (s *stubSlackService) ListUsers(ctx context.Context) ([]*slacksvc.User, error) {
	return nil, nil
}

func (s *stubSlackService) GetBotUserID(ctx context.Context) (string, error) {
	return "UBOT", nil
}

func (s *stubSlackService) SendMessage(ctx context.Context, channelID, text string, attachment *slack.Attachment) (string, error) {
	if s.sendErr != nil {
		return "", s.sendErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, channelID+":"+text)
	return "1.0", nil
}

func (s *stubSlackService) Sent() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.sent...)
}

// noWait is a throttle that never blocks
type noWait struct{}

func (noWait) Wait(ctx context.Context) error { return nil }
