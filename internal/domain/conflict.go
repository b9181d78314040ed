package domain

// Conflict pinpoints a structural invariant violation inside a state.
// Slot is -1 when the problem concerns the whole bottle, and Bottle is -1
// when it concerns the whole state.
type Conflict struct {
	Bottle int    `json:"bottle"`
	Slot   int    `json:"slot"`
	Reason string `json:"reason"`
}
