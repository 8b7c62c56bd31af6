package model

import "strings"

// StatusCallbackPrefix marks interactive callbacks produced by a dispatch cycle.
// The full identifier is "update_status_<userID>".
const StatusCallbackPrefix = "update_status"

// StatusCallbackID builds the callback identifier attached to a prompt for userID
func StatusCallbackID(userID UserID) string {
	return StatusCallbackPrefix + "_" + string(userID)
}

// IsStatusCallback reports whether callbackID belongs to the status callback family
func IsStatusCallback(callbackID string) bool {
	return strings.HasPrefix(callbackID, StatusCallbackPrefix)
}

// StatusCallbackUser extracts the user ID embedded in a status callback identifier.
// ok is false when callbackID is not a status callback or carries no user ID.
func StatusCallbackUser(callbackID string) (UserID, bool) {
	rest, found := strings.CutPrefix(callbackID, StatusCallbackPrefix+"_")
	if !found || rest == "" {
		return "", false
	}
	return UserID(rest), true
}
