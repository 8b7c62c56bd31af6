package slack

import (
	"context"
	"sync"

	"github.com/m-mizutani/goerr/v2"
	"github.com/slack-go/slack"
)

// client implements Service interface
type client struct {
	api *slack.Client

	mu        sync.Mutex
	botUserID string
}

type config struct {
	apiURL string
}

// Option is a functional option for client configuration
type Option func(*config)

// WithAPIURL overrides the Slack Web API base URL. The URL must end with "/".
func WithAPIURL(url string) Option {
	return func(c *config) {
		c.apiURL = url
	}
}

// New creates a new Slack service with the provided bot token
func New(token string, opts ...Option) (Service, error) {
	if token == "" {
		return nil, goerr.New("Slack bot token is required")
	}

	var cfg config
	for _, opt := range opts {
		opt(&cfg)
	}

	var apiOpts []slack.Option
	if cfg.apiURL != "" {
		apiOpts = append(apiOpts, slack.OptionAPIURL(cfg.apiURL))
	}

	return &client{
		api: slack.New(token, apiOpts...),
	}, nil
}

// ListUsers retrieves all users in the workspace
func (c *client) ListUsers(ctx context.Context) ([]*User, error) {
	users, err := c.api.GetUsersContext(ctx)
	if err != nil {
		return nil, goerr.Wrap(err, "failed to list users")
	}

	result := make([]*User, 0, len(users))
	for _, u := range users {
		result = append(result, &User{ID: u.ID})
	}

	return result, nil
}

// GetBotUserID resolves the bot identity via auth.test once and caches it.
// Failures are not cached.
func (c *client) GetBotUserID(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.botUserID != "" {
		return c.botUserID, nil
	}

	resp, err := c.api.AuthTestContext(ctx)
	if err != nil {
		return "", goerr.Wrap(err, "failed to get bot identity")
	}
	if resp.UserID == "" {
		return "", goerr.New("auth.test returned empty user ID")
	}

	c.botUserID = resp.UserID
	return c.botUserID, nil
}

// SendMessage posts a message with an optional attachment
func (c *client) SendMessage(ctx context.Context, channelID, text string, attachment *slack.Attachment) (string, error) {
	if channelID == "" {
		return "", goerr.New("channel ID is required")
	}

	opts := []slack.MsgOption{slack.MsgOptionText(text, false)}
	if attachment != nil {
		opts = append(opts, slack.MsgOptionAttachments(*attachment))
	}

	_, ts, err := c.api.PostMessageContext(ctx, channelID, opts...)
	if err != nil {
		return "", goerr.Wrap(err, "failed to post message", goerr.V("channel_id", channelID))
	}

	return ts, nil
}
