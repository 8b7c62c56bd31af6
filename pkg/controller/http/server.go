package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/rollcall/pkg/domain/model"
	"github.com/secmon-lab/rollcall/pkg/utils/logging"
	"github.com/secmon-lab/rollcall/pkg/utils/safe"
	"github.com/slack-go/slack/slackevents"
)

// EventUseCase demultiplexes Events API requests
type EventUseCase interface {
	HandleInboundEvent(ctx context.Context, raw []byte) (*model.Acknowledgement, error)
}

// InteractionUseCase records responses to interactive messages
type InteractionUseCase interface {
	HandleInteractive(ctx context.Context, payload *model.InteractivePayload) error
}

// EventPublisher delivers callback events to subscribers
type EventPublisher interface {
	Publish(ctx context.Context, event *slackevents.EventsAPIEvent) error
}

const welcomeMessage = "Welcome to rollcall!"

type Server struct {
	router             *chi.Mux
	slackSigningSecret string
	eventHandler       *SlackWebhookHandler
	interactionHandler *SlackInteractionHandler
}

type Options func(*Server)

// WithSlackSigningSecret enables request signature verification on every Slack hook
func WithSlackSigningSecret(secret string) Options {
	return func(s *Server) {
		s.slackSigningSecret = secret
	}
}

func WithSlackWebhook(handler *SlackWebhookHandler) Options {
	return func(s *Server) {
		s.eventHandler = handler
	}
}

func WithSlackInteraction(handler *SlackInteractionHandler) Options {
	return func(s *Server) {
		s.interactionHandler = handler
	}
}

func New(opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/", welcomeHandler)

	r.Group(func(r chi.Router) {
		if s.slackSigningSecret != "" {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
		}

		if s.eventHandler != nil {
			r.Post("/hooks/slack/event", s.eventHandler.ServeHTTP)
			r.Post("/slack/events", s.eventHandler.ServeHTTP)
		}
		if s.interactionHandler != nil {
			r.Post("/hooks/slack/interaction", s.interactionHandler.ServeHTTP)
			r.Post("/interactive", s.interactionHandler.ServeHTTP)
		}
	})

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func welcomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain")
	safe.Write(r.Context(), w, []byte(welcomeMessage))
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
				"request_id", middleware.GetReqID(r.Context()),
			)
		}()

		next.ServeHTTP(ww, r.WithContext(logging.With(r.Context(),
			logging.From(r.Context()).With("request_id", middleware.GetReqID(r.Context())))))
	})
}
