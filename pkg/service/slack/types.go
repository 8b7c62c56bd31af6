package slack

import (
	"context"

	"github.com/slack-go/slack"
)

// Service provides interface to Slack API for dispatch and response operations
type Service interface {
	// ListUsers retrieves every member of the workspace in the order Slack returns them.
	// Bots and deactivated members are included.
	ListUsers(ctx context.Context) ([]*User, error)

	// GetBotUserID returns the user ID of the bot owning the token.
	// The result is cached for the lifetime of the service instance.
	GetBotUserID(ctx context.Context) (string, error)

	// SendMessage posts text to channelID, which may be a user ID for a direct message.
	// attachment is optional. Returns the message timestamp.
	SendMessage(ctx context.Context, channelID, text string, attachment *slack.Attachment) (string, error)
}

// User represents a Slack workspace member
type User struct {
	ID string
}
