package usecase

import (
	"context"
	"crypto/subtle"
	"encoding/json"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/utils/errutil"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/slack-go/slack/slackevents"
)

// EventUseCase demultiplexes Events API requests
type EventUseCase struct {
	repo              interfaces.Repository
	verificationToken string
}

// NewEventUseCase creates an EventUseCase. An empty verificationToken disables the token check.
func NewEventUseCase(repo interfaces.Repository, verificationToken string) *EventUseCase {
	return &EventUseCase{
		repo:              repo,
		verificationToken: verificationToken,
	}
}

// envelope is the part of an Events API request read before the inner event is decoded
type envelope struct {
	Token     string `json:"token"`
	Type      string `json:"type"`
	Challenge string `json:"challenge"`
	TeamID    string `json:"team_id"`
	Event     struct {
		Type string `json:"type"`
	} `json:"event"`
}

// HandleInboundEvent verifies raw, answers the URL verification handshake and records message events.
// Mentions are not dispatched here; the returned Acknowledgement carries the event for subscribers.
func (uc *EventUseCase) HandleInboundEvent(ctx context.Context, raw []byte) (*model.Acknowledgement, error) {
	logger := logging.From(ctx)

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, goerr.Wrap(classify(ErrValidation, err), "failed to parse slack event envelope")
	}

	if uc.verificationToken != "" {
		if subtle.ConstantTimeCompare([]byte(env.Token), []byte(uc.verificationToken)) != 1 {
			return nil, goerr.Wrap(ErrAuth, "verification token mismatch",
				goerr.V("type", env.Type),
				goerr.V("team_id", env.TeamID))
		}
	}

	switch env.Type {
	case slackevents.URLVerification:
		return &model.Acknowledgement{
			Challenge: env.Challenge,
			EventType: slackevents.URLVerification,
		}, nil

	case slackevents.CallbackEvent:
		event, err := slackevents.ParseEvent(json.RawMessage(raw), slackevents.OptionNoVerifyToken())
		if err != nil {
			// slackevents rejects inner event types it does not know
			logger.Warn("unsupported slack inner event",
				"inner_type", env.Event.Type,
				"error", err.Error(),
			)
			return &model.Acknowledgement{EventType: env.Event.Type}, nil
		}

		if msg, ok := event.InnerEvent.Data.(*slackevents.MessageEvent); ok {
			uc.RecordMessage(ctx, msg)
		}

		return &model.Acknowledgement{
			EventType: event.InnerEvent.Type,
			Event:     &event,
		}, nil

	default:
		logger.Warn("unknown slack event type", "type", env.Type)
		return &model.Acknowledgement{EventType: env.Type}, nil
	}
}

// RecordMessage appends msg to the message log. Failures are logged and not returned.
func (uc *EventUseCase) RecordMessage(ctx context.Context, msg *slackevents.MessageEvent) {
	entry := model.NewMessageLogEntry(model.UserID(msg.User), msg.Channel, msg.Text)
	if err := uc.repo.MessageLog().Append(ctx, entry); err != nil {
		_ = errutil.Handle(ctx, goerr.Wrap(classify(ErrPersistence, err), "failed to append message log",
			goerr.V(UserIDKey, msg.User),
			goerr.V(ChannelIDKey, msg.Channel)), "failed to record message")
	}
}
