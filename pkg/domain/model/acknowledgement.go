package model

import "github.com/slack-go/slack/slackevents"

// Acknowledgement is the reply to an inbound Events API request.
// Challenge is set only for the verification handshake.
type Acknowledgement struct {
	Challenge string
	EventType string

	// Event is the parsed callback for subscribers. It is nil for handshakes.
	Event *slackevents.EventsAPIEvent
}
