package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/interfaces"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	slacksvc "github.com/secmon-lab/rollcall/pkg/service/slack"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
)

// IntakeUseCase records responses to status prompts
type IntakeUseCase struct {
	repo               interfaces.Repository
	slackService       slacksvc.Service
	throttle           Throttle
	prompt             *model.PromptConfig
	strictCallbackUser bool
}

func NewIntakeUseCase(repo interfaces.Repository, slackService slacksvc.Service, throttle Throttle, prompt *model.PromptConfig, strictCallbackUser bool) *IntakeUseCase {
	return &IntakeUseCase{
		repo:               repo,
		slackService:       slackService,
		throttle:           throttle,
		prompt:             prompt,
		strictCallbackUser: strictCallbackUser,
	}
}

// HandleInteractive stores the response carried by payload and confirms it to the user.
// Callbacks outside the update_status family are ignored and return nil.
// Returned errors wrap ErrValidation, ErrPersistence or ErrExternalCall.
func (uc *IntakeUseCase) HandleInteractive(ctx context.Context, payload *model.InteractivePayload) (err error) {
	logger := logging.From(ctx)

	defer func() {
		if r := recover(); r != nil {
			err = goerr.New("panic in interactive handler", goerr.V("panic", fmt.Sprint(r)))
		}
	}()

	if payload == nil {
		return goerr.Wrap(ErrValidation, "interactive payload is required")
	}
	if payload.UserID == "" {
		return goerr.Wrap(ErrValidation, "interactive payload has no user", goerr.V(CallbackIDKey, payload.CallbackID))
	}
	if payload.CallbackID == "" {
		return goerr.Wrap(ErrValidation, "interactive payload has no callback ID", goerr.V(UserIDKey, payload.UserID))
	}

	if !model.IsStatusCallback(payload.CallbackID) {
		logger.Debug("ignored interactive callback",
			"callback_id", payload.CallbackID,
			"user_id", payload.UserID,
		)
		return nil
	}

	response, ok := payload.FirstValue()
	if !ok {
		return goerr.Wrap(ErrValidation, "interactive payload has no action value",
			goerr.V(UserIDKey, payload.UserID),
			goerr.V(CallbackIDKey, payload.CallbackID))
	}

	// The payload's user is trusted; the ID embedded in the callback is only compared
	if callbackUser, ok := model.StatusCallbackUser(payload.CallbackID); !ok || callbackUser != payload.UserID {
		if uc.strictCallbackUser {
			return goerr.Wrap(ErrValidation, "callback was issued for another user",
				goerr.V(UserIDKey, payload.UserID),
				goerr.V(CallbackIDKey, payload.CallbackID))
		}
		logger.Warn("callback user differs from responding user",
			"user_id", payload.UserID,
			"callback_id", payload.CallbackID,
		)
	}

	resp := &model.UserResponse{
		UserID:    payload.UserID,
		Response:  response,
		UpdatedAt: time.Now().UTC(),
	}
	if err := uc.repo.UserResponse().Upsert(ctx, resp); err != nil {
		return goerr.Wrap(classify(ErrPersistence, err), "failed to save user response", goerr.V(UserIDKey, payload.UserID))
	}

	text, err := uc.prompt.RenderConfirmation(payload.UserID, response)
	if err != nil {
		return goerr.Wrap(err, "failed to render confirmation", goerr.V(UserIDKey, payload.UserID))
	}

	if err := uc.throttle.Wait(ctx); err != nil {
		return goerr.Wrap(classify(ErrExternalCall, err), "send slot not granted", goerr.V(UserIDKey, payload.UserID))
	}

	if _, err := uc.slackService.SendMessage(ctx, string(payload.UserID), text, nil); err != nil {
		return goerr.Wrap(classify(ErrExternalCall, err), "failed to send confirmation", goerr.V(UserIDKey, payload.UserID))
	}

	logger.Info("user response recorded",
		"user_id", payload.UserID,
		"response", response,
	)
	return nil
}
