package usecase

import "github.com/m-mizutani/goerr/v2"

// Sentinel errors for use case layer
var (
	// ErrAuth means the inbound request failed verification
	ErrAuth = goerr.New("authentication failed")

	// ErrValidation means the inbound payload is malformed
	ErrValidation = goerr.New("validation failed")

	// ErrExternalCall means a Slack API call failed
	ErrExternalCall = goerr.New("external call failed")

	// ErrPersistence means a repository write failed
	ErrPersistence = goerr.New("persistence failed")
)

// Context keys for error values
const (
	UserIDKey     = "user_id"
	CallbackIDKey = "callback_id"
	ChannelIDKey  = "channel_id"
)

// classify marks err with kind. The result matches kind by identity and keeps err as its cause.
func classify(kind *goerr.Error, err error) error {
	return kind.Wrap(err)
}
