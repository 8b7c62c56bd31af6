// Package socket receives Slack events over Socket Mode and feeds them to the same
// subscription and interaction use cases as the HTTP hooks.
package socket

import (
	"context"
	"errors"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/usecase"
	"github.com/secmon-lab/rollcall/pkg/utils/async"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/slackevents"
	"github.com/slack-go/slack/socketmode"
	"golang.org/x/sync/errgroup"
)

// MessageRecorder appends observed channel messages to the message log
type MessageRecorder interface {
	RecordMessage(ctx context.Context, msg *slackevents.MessageEvent)
}

// EventPublisher delivers callback events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event *slackevents.EventsAPIEvent) error
}

// InteractionUseCase records responses to interactive messages
type InteractionUseCase interface {
	HandleInteractive(ctx context.Context, payload *model.InteractivePayload) error
}

// acker acknowledges Socket Mode envelopes
type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

type Listener struct {
	client      *socketmode.Client
	recorder    MessageRecorder
	publisher   EventPublisher
	interaction InteractionUseCase
}

type Option func(*config)

type config struct {
	apiURL string
}

// WithAPIURL overrides the Slack Web API base URL used to open the connection
func WithAPIURL(url string) Option {
	return func(c *config) {
		c.apiURL = url
	}
}

// New creates a Socket Mode listener. appToken is the app-level token (xapp-...).
// Once Socket Mode is enabled Slack delivers every event over the socket, so message
// events go to recorder the same way the HTTP events endpoint records them.
func New(botToken, appToken string, recorder MessageRecorder, publisher EventPublisher, interaction InteractionUseCase, opts ...Option) (*Listener, error) {
	if botToken == "" {
		return nil, goerr.New("Slack bot token is required")
	}
	if appToken == "" {
		return nil, goerr.New("Slack app-level token is required")
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	apiOpts := []slack.Option{slack.OptionAppLevelToken(appToken)}
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &Listener{
		client:      socketmode.New(slack.New(botToken, apiOpts...)),
		recorder:    recorder,
		publisher:   publisher,
		interaction: interaction,
	}, nil
}

// Run connects to Slack and handles envelopes until ctx is cancelled
func (l *Listener) Run(ctx context.Context) error {
	eg, ctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		if err := l.client.RunContext(ctx); err != nil && !errors.Is(err, context.Canceled) {
			return goerr.Wrap(err, "socket mode connection failed")
		}
		return nil
	})

	eg.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case evt, ok := <-l.client.Events:
				if !ok {
					return nil
				}
				l.handleEvent(ctx, l.client, evt)
			}
		}
	})

	return eg.Wait()
}

func (l *Listener) handleEvent(ctx context.Context, ack acker, evt socketmode.Event) {
	logger := logging.From(ctx)

	switch evt.Type {
	case socketmode.EventTypeConnecting, socketmode.EventTypeConnected, socketmode.EventTypeHello:
		logger.Debug("socket mode connection event", "type", evt.Type)

	case socketmode.EventTypeConnectionError, socketmode.EventTypeInvalidAuth:
		logger.Error("socket mode connection problem", "type", evt.Type)

	case socketmode.EventTypeEventsAPI:
		if evt.Request != nil {
			ack.Ack(*evt.Request)
		}

		event, ok := evt.Data.(slackevents.EventsAPIEvent)
		if !ok {
			logger.Warn("unexpected events API payload", "type", evt.Type)
			return
		}
		if event.Type != slackevents.CallbackEvent {
			return
		}

		async.Dispatch(ctx, func(ctx context.Context) error {
			if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok && l.recorder != nil {
				l.recorder.RecordMessage(ctx, msg)
			}
			if l.publisher == nil {
				return nil
			}
			if err := l.publisher.Publish(ctx, &event); err != nil {
				return goerr.Wrap(err, "failed to publish slack event")
			}
			return nil
		})

	case socketmode.EventTypeInteractive:
		callback, ok := evt.Data.(slack.InteractionCallback)
		if !ok || l.interaction == nil {
			if evt.Request != nil {
				ack.Ack(*evt.Request)
			}
			logger.Warn("unexpected interactive payload", "type", evt.Type)
			return
		}

		// Acked only after intake succeeds or rejects the payload as invalid; Slack redelivers the rest
		async.Dispatch(ctx, func(ctx context.Context) error {
			err := l.interaction.HandleInteractive(ctx, model.NewInteractivePayload(&callback))
			if err != nil && !errors.Is(err, usecase.ErrValidation) {
				return goerr.Wrap(err, "failed to handle interactive payload")
			}
			if evt.Request != nil {
				ack.Ack(*evt.Request)
			}
			if err != nil {
				logging.From(ctx).Warn("invalid interactive payload acknowledged", "error", err.Error())
			}
			return nil
		})

	default:
		if evt.Request != nil {
			ack.Ack(*evt.Request)
		}
		logger.Debug("ignored socket mode event", "type", evt.Type)
	}
}
