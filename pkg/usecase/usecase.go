package usecase

import (
	"context"

	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/secmon-lab/rollcall/pkg/utils/throttle"
	"github.com/slack-go/slack/slackevents"
)

// Throttle gates outbound Slack messages. One instance is shared by every sender.
type Throttle interface {
	Wait(ctx context.Context) error
}

type UseCases struct {
	repo               interfaces.Repository
	slackService       slacksvc.Service
	throttle           Throttle
	prompt             *model.PromptConfig
	verificationToken  string
	strictCallbackUser bool

	Dispatch     *DispatchUseCase
	Intake       *IntakeUseCase
	Event        *EventUseCase
	Subscription *Subscription
}

type Option func(*UseCases)

// WithThrottle replaces the default one-second send gate
func WithThrottle(t Throttle) Option {
	return func(uc *UseCases) {
		uc.throttle = t
	}
}

// WithPromptConfig replaces the built-in prompt and confirmation wording
func WithPromptConfig(cfg *model.PromptConfig) Option {
	return func(uc *UseCases) {
		uc.prompt = cfg
	}
}

// WithVerificationToken enables the Events API token check
func WithVerificationToken(token string) Option {
	return func(uc *UseCases) {
		uc.verificationToken = token
	}
}

// WithStrictCallbackUser rejects interactive callbacks whose embedded user differs from the clicking user
func WithStrictCallbackUser(strict bool) Option {
	return func(uc *UseCases) {
		uc.strictCallbackUser = strict
	}
}

func New(repo interfaces.Repository, slackService slacksvc.Service, opts ...Option) *UseCases {
	uc := &UseCases{
		repo:         repo,
		slackService: slackService,
	}

	for _, opt := range opts {
		opt(uc)
	}

	if uc.throttle == nil {
		uc.throttle = throttle.New(throttle.DefaultInterval)
	}
	if uc.prompt == nil {
		uc.prompt = model.DefaultPromptConfig()
	}

	uc.Dispatch = NewDispatchUseCase(repo, slackService, uc.throttle, uc.prompt)
	uc.Intake = NewIntakeUseCase(repo, slackService, uc.throttle, uc.prompt, uc.strictCallbackUser)
	uc.Event = NewEventUseCase(repo, uc.verificationToken)
	uc.Subscription = NewSubscription()
	uc.Subscription.On(string(slackevents.AppMention), uc.Dispatch.HandleMentionEvent)

	return uc
}
