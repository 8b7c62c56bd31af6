package model

import "github.com/slack-go/slack/slackevents"

// MentionEvent is an inbound notification that the bot was referenced in a message
type MentionEvent struct {
	TeamID    string
	ChannelID string
	UserID    UserID
	Text      string
	TimeStamp string
}

// NewMentionEvent converts an app_mention callback. It returns nil for any other event.
func NewMentionEvent(ev *slackevents.EventsAPIEvent) *MentionEvent {
	if ev == nil || ev.Type != slackevents.CallbackEvent {
		return nil
	}
	mention, ok := ev.InnerEvent.Data.(*slackevents.AppMentionEvent)
	if !ok {
		return nil
	}
	return &MentionEvent{
		TeamID:    ev.TeamID,
		ChannelID: mention.Channel,
		UserID:    UserID(mention.User),
		Text:      mention.Text,
		TimeStamp: mention.TimeStamp,
	}
}
