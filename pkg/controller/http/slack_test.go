package http_test

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/m-mizutani/gt"
	httpctrl "github.com/secmon-lab/rollcall/pkg/controller/http"
	"github.com/secmon-lab/rollcall/pkg/repository/memory"
	"github.com/secmon-lab/rollcall/pkg/usecase"
	"github.com/slack-go/slack/slackevents"
)

// Export the private function for testing
var VerifySlackSignature = httpctrl.VerifySlackSignature

// computeSlackSignature computes the Slack signature for testing
func computeSlackSignature(signingSecret, timestamp, body string) string {
	baseString := fmt.Sprintf("v0:%s:%s", timestamp, body)
	h := hmac.New(sha256.New, []byte(signingSecret))
	h.Write([]byte(baseString))
	return "v0=" + hex.EncodeToString(h.Sum(nil))
}

// Test core signature verification function
func TestVerifySlackSignature(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte(`{"type":"url_verification","challenge":"test"}`)

	t.Run("valid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err != nil {
			t.Errorf("expected no error, got: %v", err)
		}
	})

	t.Run("invalid signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		invalidSignature := "v0=invalid_signature"

		err := VerifySlackSignature(signingSecret, timestamp, invalidSignature, body)
		if err == nil {
			t.Error("expected error for invalid signature, got nil")
		}
	})

	t.Run("missing timestamp", func(t *testing.T) {
		signature := computeSlackSignature(signingSecret, "123456", string(body))

		err := VerifySlackSignature(signingSecret, "", signature, body)
		if err == nil {
			t.Error("expected error for missing timestamp, got nil")
		}
	})

	t.Run("missing signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)

		err := VerifySlackSignature(signingSecret, timestamp, "", body)
		if err == nil {
			t.Error("expected error for missing signature, got nil")
		}
	})

	t.Run("timestamp too old", func(t *testing.T) {
		// Timestamp 10 minutes ago (should be rejected, limit is 5 minutes)
		oldTimestamp := strconv.FormatInt(time.Now().Add(-10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, oldTimestamp, string(body))

		err := VerifySlackSignature(signingSecret, oldTimestamp, signature, body)
		if err == nil {
			t.Error("expected error for old timestamp, got nil")
		}
	})

	t.Run("timestamp too far in the future", func(t *testing.T) {
		futureTimestamp := strconv.FormatInt(time.Now().Add(10*time.Minute).Unix(), 10)
		signature := computeSlackSignature(signingSecret, futureTimestamp, string(body))

		err := VerifySlackSignature(signingSecret, futureTimestamp, signature, body)
		gt.Value(t, err).NotNil()
	})

	t.Run("invalid timestamp format", func(t *testing.T) {
		invalidTimestamp := "not-a-number"
		signature := computeSlackSignature(signingSecret, invalidTimestamp, string(body))

		err := VerifySlackSignature(signingSecret, invalidTimestamp, signature, body)
		if err == nil {
			t.Error("expected error for invalid timestamp format, got nil")
		}
	})

	t.Run("different secret produces different signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature("wrong-secret", timestamp, string(body))

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err == nil {
			t.Error("expected error when using wrong secret, got nil")
		}
	})

	t.Run("different body produces different signature", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, "different body")

		err := VerifySlackSignature(signingSecret, timestamp, signature, body)
		if err == nil {
			t.Error("expected error when body doesn't match signature, got nil")
		}
	})
}

// Test middleware
func TestSlackSignatureMiddleware(t *testing.T) {
	signingSecret := "test-signing-secret"
	body := []byte(`{"type":"url_verification","challenge":"test"}`)

	t.Run("calls next handler when signature is valid", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if !nextCalled {
			t.Error("expected next handler to be called, but it wasn't")
		}

		if rec.Code != http.StatusOK {
			t.Errorf("expected status %d, got %d", http.StatusOK, rec.Code)
		}
	})

	t.Run("does not call next handler when signature is invalid", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		invalidSignature := "v0=invalid"

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", invalidSignature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if nextCalled {
			t.Error("expected next handler NOT to be called, but it was")
		}

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})

	t.Run("restores request body for next handler", func(t *testing.T) {
		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(signingSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		var receivedBody []byte
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			var err error
			receivedBody, err = io.ReadAll(r.Body)
			if err != nil {
				t.Fatalf("failed to read body in next handler: %v", err)
			}
			w.WriteHeader(http.StatusOK)
		})

		middleware := httpctrl.SlackSignatureMiddleware(signingSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if string(receivedBody) != string(body) {
			t.Errorf("expected body %s, got %s", string(body), string(receivedBody))
		}
	})

	t.Run("handles different signing secrets", func(t *testing.T) {
		correctSecret := "correct-secret"
		wrongSecret := "wrong-secret"

		timestamp := strconv.FormatInt(time.Now().Unix(), 10)
		signature := computeSlackSignature(correctSecret, timestamp, string(body))

		req := httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body))
		req.Header.Set("X-Slack-Request-Timestamp", timestamp)
		req.Header.Set("X-Slack-Signature", signature)

		rec := httptest.NewRecorder()

		nextCalled := false
		nextHandler := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			nextCalled = true
			w.WriteHeader(http.StatusOK)
		})

		// Use wrong secret - should fail
		middleware := httpctrl.SlackSignatureMiddleware(wrongSecret)
		middleware(nextHandler).ServeHTTP(rec, req)

		if nextCalled {
			t.Error("expected next handler NOT to be called with wrong secret, but it was")
		}

		if rec.Code != http.StatusUnauthorized {
			t.Errorf("expected status %d, got %d", http.StatusUnauthorized, rec.Code)
		}
	})
}

// capturePublisher records published events
type capturePublisher struct {
	events chan *slackevents.EventsAPIEvent
}

func newCapturePublisher() *capturePublisher {
	return &capturePublisher{events: make(chan *slackevents.EventsAPIEvent, 10)}
}

func (p *capturePublisher) Publish(ctx context.Context, event *slackevents.EventsAPIEvent) error {
	p.events <- event
	return nil
}

func signedRequest(t *testing.T, signingSecret, path string, body []byte) *http.Request {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewReader(body))
	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Slack-Request-Timestamp", timestamp)
	req.Header.Set("X-Slack-Signature", computeSlackSignature(signingSecret, timestamp, string(body)))
	return req
}

func newEventServer(t *testing.T, signingSecret, verificationToken string) (*httpctrl.Server, *memory.Memory, *capturePublisher) {
	t.Helper()
	repo := memory.New()
	uc := usecase.New(repo, &stubSlackService{}, usecase.WithVerificationToken(verificationToken))
	publisher := newCapturePublisher()

	opts := []httpctrl.Options{
		httpctrl.WithSlackWebhook(httpctrl.NewSlackWebhookHandler(uc.Event, publisher)),
	}
	if signingSecret != "" {
		opts = append(opts, httpctrl.WithSlackSigningSecret(signingSecret))
	}
	return httpctrl.New(opts...), repo, publisher
}

func TestSlackWebhookHandler_URLVerification(t *testing.T) {
	signingSecret := "test-signing-secret"
	server, _, _ := newEventServer(t, signingSecret, "")

	body, err := json.Marshal(map[string]any{
		"type":      "url_verification",
		"challenge": "abc123",
	})
	gt.NoError(t, err).Required()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, signedRequest(t, signingSecret, "/hooks/slack/event", body))

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Body.String()).Equal("abc123")
	gt.Value(t, rec.Header().Get("Content-Type")).Equal("text/plain")
}

func TestSlackWebhookHandler_VerificationToken(t *testing.T) {
	server, _, _ := newEventServer(t, "", "expected-token")

	t.Run("accepts matching token", func(t *testing.T) {
		body := []byte(`{"token":"expected-token","type":"url_verification","challenge":"ok"}`)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body)))

		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.String()).Equal("ok")
	})

	t.Run("rejects mismatched token", func(t *testing.T) {
		body := []byte(`{"token":"other","type":"url_verification","challenge":"ok"}`)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body)))

		gt.Number(t, rec.Code).Equal(http.StatusForbidden)
	})

	t.Run("legacy path uses the same handler", func(t *testing.T) {
		body := []byte(`{"token":"expected-token","type":"url_verification","challenge":"legacy"}`)
		rec := httptest.NewRecorder()
		server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/slack/events", bytes.NewReader(body)))

		gt.Number(t, rec.Code).Equal(http.StatusOK)
		gt.Value(t, rec.Body.String()).Equal("legacy")
	})
}

func TestSlackWebhookHandler_MessageEvent(t *testing.T) {
	signingSecret := "test-signing-secret"
	server, repo, publisher := newEventServer(t, signingSecret, "")

	body, err := json.Marshal(map[string]any{
		"token":      "test-token",
		"team_id":    "T123",
		"api_app_id": "A123",
		"type":       "event_callback",
		"event": map[string]any{
			"type":    "message",
			"user":    "U123",
			"text":    "Hello from test",
			"ts":      "1234567890.123456",
			"channel": "C123",
		},
	})
	gt.NoError(t, err).Required()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, signedRequest(t, signingSecret, "/hooks/slack/event", body))

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.Value(t, rec.Body.String()).Equal("")

	logs, err := repo.MessageLog().List(context.Background(), "C123", 0)
	gt.NoError(t, err).Required()
	gt.Array(t, logs).Length(1).Required()
	gt.Value(t, logs[0].Text).Equal("Hello from test")

	select {
	case ev := <-publisher.events:
		gt.Value(t, ev.InnerEvent.Type).Equal("message")
	case <-time.After(time.Second):
		t.Fatal("callback event was not published")
	}
}

func TestSlackWebhookHandler_MentionIsPublished(t *testing.T) {
	server, _, publisher := newEventServer(t, "", "")

	body := []byte(`{"type":"event_callback","team_id":"T1","event":{"type":"app_mention","user":"U1","channel":"C1","text":"<@UBOT> go"}}`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body)))
	gt.Number(t, rec.Code).Equal(http.StatusOK)

	select {
	case ev := <-publisher.events:
		mention, ok := ev.InnerEvent.Data.(*slackevents.AppMentionEvent)
		gt.Bool(t, ok).True()
		gt.Value(t, mention.User).Equal("U1")
	case <-time.After(time.Second):
		t.Fatal("mention was not published")
	}
}

func TestSlackWebhookHandler_InvalidSignature(t *testing.T) {
	server, _, _ := newEventServer(t, "test-signing-secret", "")

	body := []byte(`{"type":"url_verification","challenge":"abc"}`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, signedRequest(t, "another-secret", "/hooks/slack/event", body))

	gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
}

func TestSlackWebhookHandler_MissingHeaders(t *testing.T) {
	server, _, _ := newEventServer(t, "test-signing-secret", "")

	body := []byte(`{"type":"url_verification","challenge":"abc"}`)
	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader(body)))

	gt.Number(t, rec.Code).Equal(http.StatusUnauthorized)
}

func TestSlackWebhookHandler_MalformedBody(t *testing.T) {
	server, _, _ := newEventServer(t, "", "")

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/hooks/slack/event", bytes.NewReader([]byte("{broken"))))

	gt.Number(t, rec.Code).Equal(http.StatusBadRequest)
}

func TestWelcome(t *testing.T) {
	server := httpctrl.New()

	rec := httptest.NewRecorder()
	server.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	gt.Number(t, rec.Code).Equal(http.StatusOK)
	gt.String(t, rec.Body.String()).Contains("rollcall")
}
