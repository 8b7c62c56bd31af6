package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/secmon-lab/rollcall/pkg/utils/errutil"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/slack-go/slack/slackevents"
)

// DispatchUseCase broadcasts the status prompt to every eligible member when the bot is mentioned
type DispatchUseCase struct {
	repo         interfaces.Repository
	slackService slacksvc.Service
	throttle     Throttle
	prompt       *model.PromptConfig
}

func NewDispatchUseCase(repo interfaces.Repository, slackService slacksvc.Service, throttle Throttle, prompt *model.PromptConfig) *DispatchUseCase {
	return &DispatchUseCase{
		repo:         repo,
		slackService: slackService,
		throttle:     throttle,
		prompt:       prompt,
	}
}

// ResolveRecipients returns every workspace member except mentioningUser and botUser, in Slack's order.
// An empty mentioningUser or botUser yields no recipients.
func (uc *DispatchUseCase) ResolveRecipients(ctx context.Context, mentioningUser, botUser model.UserID) ([]model.UserID, error) {
	if mentioningUser == "" || botUser == "" {
		return nil, nil
	}

	users, err := uc.slackService.ListUsers(ctx)
	if err != nil {
		return nil, goerr.Wrap(classify(ErrExternalCall, err), "failed to list workspace users")
	}

	recipients := make([]model.UserID, 0, len(users))
	for _, u := range users {
		id := model.UserID(u.ID)
		if id == mentioningUser || id == botUser {
			continue
		}
		recipients = append(recipients, id)
	}

	return recipients, nil
}

// RunDispatch runs one dispatch cycle for event. The cycle starts empty and is owned by this call.
// Failures of individual recipients are recorded in the result and never abort the cycle.
func (uc *DispatchUseCase) RunDispatch(ctx context.Context, event *model.MentionEvent) (*model.DispatchResult, error) {
	cycle := model.NewDispatchCycle()

	if event == nil {
		return nil, goerr.Wrap(ErrValidation, "mention event is required")
	}

	botUserID, err := uc.slackService.GetBotUserID(ctx)
	if err != nil {
		return nil, goerr.Wrap(classify(ErrExternalCall, err), "failed to resolve bot identity")
	}

	recipients, err := uc.ResolveRecipients(ctx, event.UserID, model.UserID(botUserID))
	if err != nil {
		return nil, goerr.Wrap(err, "failed to resolve recipients", goerr.V(UserIDKey, event.UserID))
	}

	outcomes := make([]model.RecipientOutcome, 0, len(recipients))
	for _, userID := range recipients {
		outcomes = append(outcomes, uc.promptRecipient(ctx, cycle, userID))
	}

	return model.NewDispatchResult(cycle, outcomes), nil
}

// promptRecipient sends the prompt to one user and records it. Panics are converted to a failed outcome.
func (uc *DispatchUseCase) promptRecipient(ctx context.Context, cycle *model.DispatchCycle, userID model.UserID) (outcome model.RecipientOutcome) {
	outcome.UserID = userID

	defer func() {
		if r := recover(); r != nil {
			outcome.Err = goerr.New("panic while prompting recipient",
				goerr.V(UserIDKey, userID),
				goerr.V("panic", fmt.Sprint(r)))
			_ = errutil.Handle(ctx, outcome.Err, "failed to prompt recipient")
		}
	}()

	text, err := uc.prompt.RenderPrompt(userID)
	if err != nil {
		outcome.Err = goerr.Wrap(err, "failed to render prompt", goerr.V(UserIDKey, userID))
		_ = errutil.Handle(ctx, outcome.Err, "failed to prompt recipient")
		return outcome
	}

	if err := uc.throttle.Wait(ctx); err != nil {
		outcome.Err = goerr.Wrap(classify(ErrExternalCall, err), "send slot not granted", goerr.V(UserIDKey, userID))
		_ = errutil.Handle(ctx, outcome.Err, "failed to prompt recipient")
		return outcome
	}

	if _, err := uc.slackService.SendMessage(ctx, string(userID), text, uc.prompt.Attachment(userID)); err != nil {
		outcome.Err = goerr.Wrap(classify(ErrExternalCall, err), "failed to send prompt", goerr.V(UserIDKey, userID))
		_ = errutil.Handle(ctx, outcome.Err, "failed to prompt recipient")
		return outcome
	}
	outcome.Sent = true

	status := &model.UserStatus{
		UserID:    userID,
		Status:    text,
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.repo.UserStatus().Upsert(ctx, status); err != nil {
		outcome.Err = goerr.Wrap(classify(ErrPersistence, err), "failed to save user status", goerr.V(UserIDKey, userID))
		_ = errutil.Handle(ctx, outcome.Err, "failed to prompt recipient")
		return outcome
	}
	outcome.Persisted = true

	cycle.Track(userID)
	return outcome
}

// HandleMention runs a dispatch cycle and logs its result. It never panics and never returns an error.
func (uc *DispatchUseCase) HandleMention(ctx context.Context, event *model.MentionEvent) {
	logger := logging.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			err := goerr.New("panic in mention handler", goerr.V("panic", fmt.Sprint(r)))
			_ = errutil.Handle(ctx, err, "failed to handle mention")
		}
	}()

	if event == nil {
		return
	}

	logger.Info("dispatch cycle started",
		"user_id", event.UserID,
		"channel_id", event.ChannelID,
		"team_id", event.TeamID,
	)

	result, err := uc.RunDispatch(ctx, event)
	if err != nil {
		_ = errutil.Handle(ctx, err, "failed to run dispatch cycle")
		return
	}

	logger.Info("dispatch cycle finished",
		"user_id", event.UserID,
		"sent", result.Sent,
		"failed", result.Failed,
	)
}

// HandleMentionEvent adapts HandleMention to the subscription handler signature
func (uc *DispatchUseCase) HandleMentionEvent(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	if event == nil {
		return nil
	}

	mention := model.NewMentionEvent(event)
	if mention == nil {
		logging.From(ctx).Warn("app_mention subscription received another event",
			"type", event.Type,
			"inner_type", event.InnerEvent.Type,
		)
		return nil
	}

	uc.HandleMention(ctx, mention)
	return nil
}
