package model

import "github.com/slack-go/slack"

// InteractivePayload is the part of an interactive callback needed to record a response
type InteractivePayload struct {
	UserID     UserID
	CallbackID string
	Values     []string
}

// NewInteractivePayload extracts user, callback ID and action values from a Slack callback.
// Legacy attachment actions are read first; block actions are used as a fallback.
func NewInteractivePayload(cb *slack.InteractionCallback) *InteractivePayload {
	if cb == nil {
		return nil
	}

	p := &InteractivePayload{
		UserID:     UserID(cb.User.ID),
		CallbackID: cb.CallbackID,
	}
	for _, action := range cb.ActionCallback.AttachmentActions {
		if action != nil {
			p.Values = append(p.Values, action.Value)
		}
	}
	if len(p.Values) == 0 {
		for _, action := range cb.ActionCallback.BlockActions {
			if action != nil {
				p.Values = append(p.Values, action.Value)
			}
		}
	}
	return p
}

// FirstValue returns the first action value, or false if there is none or it is empty
func (x *InteractivePayload) FirstValue() (string, bool) {
	if x == nil || len(x.Values) == 0 || x.Values[0] == "" {
		return "", false
	}
	return x.Values[0], true
}
