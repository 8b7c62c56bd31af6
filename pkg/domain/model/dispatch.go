package model

// DispatchCycle tracks the users messaged during one mention-triggered broadcast.
// A new, empty cycle is created for every mention event and never shared.
type DispatchCycle struct {
	delivered []UserID
	seen      map[UserID]struct{}
}

// NewDispatchCycle returns an empty cycle
func NewDispatchCycle() *DispatchCycle {
	return &DispatchCycle{seen: make(map[UserID]struct{})}
}

// Track records userID as messaged. It returns false if it was already tracked.
func (x *DispatchCycle) Track(userID UserID) bool {
	if _, ok := x.seen[userID]; ok {
		return false
	}
	x.seen[userID] = struct{}{}
	x.delivered = append(x.delivered, userID)
	return true
}

// Has reports whether userID was messaged in this cycle
func (x *DispatchCycle) Has(userID UserID) bool {
	_, ok := x.seen[userID]
	return ok
}

// Delivered returns tracked users in the order they were messaged
func (x *DispatchCycle) Delivered() []UserID {
	out := make([]UserID, len(x.delivered))
	copy(out, x.delivered)
	return out
}

// Len returns the number of tracked users
func (x *DispatchCycle) Len() int {
	return len(x.delivered)
}

// RecipientOutcome is the result of prompting one recipient
type RecipientOutcome struct {
	UserID    UserID
	Sent      bool
	Persisted bool
	Err       error
}

// OK reports whether the recipient was both messaged and recorded
func (x RecipientOutcome) OK() bool {
	return x.Sent && x.Persisted && x.Err == nil
}

// DispatchResult aggregates one dispatch cycle
type DispatchResult struct {
	Sent     int
	Failed   int
	Outcomes []RecipientOutcome
	// Delivered is the cycle's tracking set: recipients whose prompt was sent and persisted
	Delivered []UserID
}

// NewDispatchResult aggregates outcomes without short-circuiting on failures
func NewDispatchResult(cycle *DispatchCycle, outcomes []RecipientOutcome) *DispatchResult {
	result := &DispatchResult{
		Outcomes:  outcomes,
		Delivered: cycle.Delivered(),
	}
	for _, o := range outcomes {
		if o.OK() {
			result.Sent++
		} else {
			result.Failed++
		}
	}
	return result
}
