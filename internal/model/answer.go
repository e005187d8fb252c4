package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Answer is one answer slot: either Unanswered or the index of the chosen
// option. It encodes to JSON null when unanswered.
type Answer int

// Unanswered marks an empty slot.
const Unanswered Answer = -1

// Answered reports whether the slot holds an option index.
func (a Answer) Answered() bool { return a >= 0 }

func (a Answer) MarshalJSON() ([]byte, error) {
	if !a.Answered() {
		return []byte("null"), nil
	}
	return []byte(fmt.Sprintf("%d", int(a))), nil
}

func (a *Answer) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*a = Unanswered
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("answer slot: %w", err)
	}
	if n < 0 {
		*a = Unanswered
		return nil
	}
	*a = Answer(n)
	return nil
}

// NewAnswerSlots returns n unanswered slots.
func NewAnswerSlots(n int) []Answer {
	slots := make([]Answer, n)
	for i := range slots {
		slots[i] = Unanswered
	}
	return slots
}

// CloneAnswers returns an independent copy of slots.
func CloneAnswers(slots []Answer) []Answer {
	if slots == nil {
		return nil
	}
	out := make([]Answer, len(slots))
	copy(out, slots)
	return out
}
