package http

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/m-mizutani/goerr/v2"
	"github.com/secmon-lab/rollcall/pkg/usecase"
	"github.com/secmon-lab/rollcall/pkg/utils/async"
	"github.com/secmon-lab/rollcall/pkg/utils/errutil"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/secmon-lab/rollcall/pkg/utils/safe"
)

// slackRequestMaxAge bounds the clock skew accepted for X-Slack-Request-Timestamp
const slackRequestMaxAge = 5 * time.Minute

// verifySlackSignature verifies the Slack request signature
// This is a pure function that can be used independently for testing
func verifySlackSignature(signingSecret, timestamp, signature string, body []byte) error {
	if timestamp == "" {
		return goerr.New("missing timestamp")
	}

	if signature == "" {
		return goerr.New("missing signature")
	}

	ts, err := strconv.ParseInt(timestamp, 10, 64)
	if err != nil {
		return goerr.Wrap(err, "invalid timestamp")
	}

	now := time.Now().Unix()
	skew := now - ts
	if skew < 0 {
		skew = -skew
	}
	if skew > int64(slackRequestMaxAge/time.Second) {
		return goerr.New("timestamp out of range", goerr.V("timestamp", timestamp), goerr.V("now", now))
	}

	// Compute expected signature
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	mac := hmac.New(sha256.New, []byte(signingSecret))
	if _, err := mac.Write([]byte(baseString)); err != nil {
		return goerr.Wrap(err, "failed to compute HMAC")
	}
	expectedSignature := "v0=" + hex.EncodeToString(mac.Sum(nil))

	// Compare signatures
	if !hmac.Equal([]byte(expectedSignature), []byte(signature)) {
		return goerr.New("signature mismatch")
	}

	return nil
}

// SlackSignatureMiddleware creates a middleware that verifies Slack request signatures
func SlackSignatureMiddleware(signingSecret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()

			body, err := io.ReadAll(r.Body)
			if err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
				return
			}
			safe.Close(ctx, r.Body)

			// Get headers
			timestamp := r.Header.Get("X-Slack-Request-Timestamp")
			signature := r.Header.Get("X-Slack-Signature")

			// Verify signature
			if err := verifySlackSignature(signingSecret, timestamp, signature, body); err != nil {
				errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "slack signature verification failed"), http.StatusUnauthorized)
				return
			}

			// Restore the consumed body for the next handler
			r.Body = io.NopCloser(bytes.NewReader(body))
			next.ServeHTTP(w, r)
		})
	}
}

// SlackWebhookHandler handles Slack Events API webhook requests
type SlackWebhookHandler struct {
	eventUC   EventUseCase
	publisher EventPublisher
}

// NewSlackWebhookHandler creates a new Slack webhook handler.
// Callback events are published to publisher after the request is acknowledged.
func NewSlackWebhookHandler(eventUC EventUseCase, publisher EventPublisher) *SlackWebhookHandler {
	return &SlackWebhookHandler{
		eventUC:   eventUC,
		publisher: publisher,
	}
}

// ServeHTTP handles Slack webhook requests
func (h *SlackWebhookHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	body, err := io.ReadAll(r.Body)
	if err != nil {
		errutil.HandleHTTP(ctx, w, goerr.Wrap(err, "failed to read request body"), http.StatusBadRequest)
		return
	}

	ack, err := h.eventUC.HandleInboundEvent(ctx, body)
	if err != nil {
		switch {
		case errors.Is(err, usecase.ErrAuth):
			errutil.HandleHTTP(ctx, w, err, http.StatusForbidden)
		case errors.Is(err, usecase.ErrValidation):
			errutil.HandleHTTP(ctx, w, err, http.StatusBadRequest)
		default:
			errutil.HandleHTTP(ctx, w, err, http.StatusInternalServerError)
		}
		return
	}

	if ack.Challenge != "" {
		w.Header().Set("Content-Type", "text/plain")
		w.WriteHeader(http.StatusOK)
		safe.Write(ctx, w, []byte(ack.Challenge))
		return
	}

	// Return 200 immediately to satisfy Slack's 3-second timeout requirement
	w.WriteHeader(http.StatusOK)

	if ack.Event != nil && h.publisher != nil {
		event := ack.Event
		async.Dispatch(ctx, func(ctx context.Context) error {
			logger := logging.From(ctx)
			logger.Info("processing slack callback event",
				"inner_type", event.InnerEvent.Type,
				"team_id", event.TeamID,
			)

			if err := h.publisher.Publish(ctx, event); err != nil {
				return goerr.Wrap(err, "failed to publish slack event")
			}
			return nil
		})
	}
}
