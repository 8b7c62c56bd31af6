package model

// UserID is a Slack workspace member ID (e.g. "U0123ABCD")
type UserID string

func (x UserID) String() string {
	return string(x)
}

// UserIDs converts plain strings to UserIDs
func UserIDs(ids ...string) []UserID {
	out := make([]UserID, len(ids))
	for i, id := range ids {
		out[i] = UserID(id)
	}
	return out
}
