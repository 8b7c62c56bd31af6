package http

import (
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/usecase"
	"github.com/secmon-lab/rollcall/pkg/utils/errutil"
	"github.com/slack-go/slack"
)

// SlackInteractionHandler handles Slack interactive component payloads (button clicks)
type SlackInteractionHandler struct {
	interactionUC InteractionUseCase
}

// NewSlackInteractionHandler creates a new Slack interaction handler
func NewSlackInteractionHandler(interactionUC InteractionUseCase) *SlackInteractionHandler {
	return &SlackInteractionHandler{
		interactionUC: interactionUC,
	}
}

// ServeHTTP handles Slack interaction webhook requests.
// The response body is empty; only the status code carries the outcome.
func (h *SlackInteractionHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw, err := readInteractionPayload(r)
	if err != nil {
		errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		return
	}

	var callback slack.InteractionCallback
	if err := json.Unmarshal(raw, &callback); err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to parse interaction payload"), http.StatusBadRequest)
		return
	}

	if err := h.interactionUC.HandleInteractive(ctx, model.NewInteractivePayload(&callback)); err != nil {
		if errors.Is(err, usecase.ErrValidation) {
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
			return
		}
		// Slack retries on failure, so persistence and send errors are reported
		errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
}

// readInteractionPayload returns the JSON payload from Slack's form encoding ("payload" field)
// or, for any other content type, from the raw body.
func readInteractionPayload(r *http.Request) ([]byte, error) {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if mediaType == "application/x-www-form-urlencoded" {
		payload := r.FormValue("payload")
		if payload == "" {
			return nil, goerr.New("missing payload field in interaction request")
		}
		return []byte(payload), nil
	}

	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to read request body")
	}
	if len(body) == 0 {
		return nil, goerr.New("empty interaction request")
	}
	return body, nil
}
