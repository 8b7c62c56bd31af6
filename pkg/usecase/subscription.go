package usecase

import (
	"context"
	"errors"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/slack-go/slack/slackevents"
)

// EventHandler processes one callback event delivered through a Subscription
type EventHandler func(ctx context.Context, event *slackevents.EventsAPIEvent) error

// Subscription routes callback events to handlers registered by inner event type.
// Both the HTTP events endpoint and the Socket Mode listener publish into it.
type Subscription struct {
	mu       sync.RWMutex
	handlers map[string][]EventHandler
}

func NewSubscription() *Subscription {
	return &Subscription{
		handlers: make(map[string][]EventHandler),
	}
}

// On registers handler for eventType, e.g. "app_mention"
func (s *Subscription) On(eventType string, handler EventHandler) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.handlers[eventType] = append(s.handlers[eventType], handler)
}

// Publish runs every handler registered for the event's inner type in registration order.
// All handlers run even if one fails; their errors are joined.
func (s *Subscription) Publish(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	if event == nil {
		return nil
	}

	s.mu.RLock()
	handlers := append([]EventHandler(nil), s.handlers[event.InnerEvent.Type]...)
	s.mu.RUnlock()

	if len(handlers) == 0 {
		logging.From(ctx).Debug("no subscriber for slack event", "inner_type", event.InnerEvent.Type)
		return nil
	}

	var errs []error
	for _, h := range handlers {
		if err := h(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	if len(errs) > 0 {
		return goerr.Wrap(errors.Join(errs...), "slack event subscriber failed",
			goerr.V("inner_type", event.InnerEvent.Type))
	}
	return nil
}
