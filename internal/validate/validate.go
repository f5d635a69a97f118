// Package validate checks expense submissions before the settlement engine
// runs. Every rejection carries a specific human-readable message; the
// engine itself never validates.
package validate

import (
	"fmt"
	"math"
	"strings"

	"divvy/internal/core"
)

// Rules bounds what an expense submission may contain. Passed explicitly so
// limits are configuration, not process-wide state.
type Rules struct {
	MinAmount       float64
	MaxAmount       float64
	MaxParticipants int
}

// DefaultRules mirrors the service defaults: one cent up to one million,
// at most fifty participants.
func DefaultRules() Rules {
	return Rules{
		MinAmount:       0.01,
		MaxAmount:       1_000_000,
		MaxParticipants: 50,
	}
}

// ExpenseInput is the raw submission shape, before any defaulting.
type ExpenseInput struct {
	TotalAmount  float64
	NumPeople    int
	Participants []core.Participant
}

// Check validates an expense submission against the rules. Participants may
// be empty, in which case the service fills in an equal split; when present
// their count must match NumPeople and their contributions must sum to the
// total within core.Epsilon.
func (r Rules) Check(in ExpenseInput) error {
	if in.TotalAmount < r.MinAmount {
		return fmt.Errorf("total amount must be at least $%v", r.MinAmount)
	}
	if in.TotalAmount > r.MaxAmount {
		return fmt.Errorf("total amount cannot exceed $%v", r.MaxAmount)
	}

	if in.NumPeople < 1 {
		return fmt.Errorf("number of people must be at least 1")
	}
	if in.NumPeople > r.MaxParticipants {
		return fmt.Errorf("number of people cannot exceed %d", r.MaxParticipants)
	}

	if len(in.Participants) == 0 {
		return nil
	}

	if len(in.Participants) != in.NumPeople {
		return fmt.Errorf("number of participants (%d) must match number of people (%d)",
			len(in.Participants), in.NumPeople)
	}

	var sum float64
	for _, p := range in.Participants {
		if strings.TrimSpace(p.Name) == "" {
			return fmt.Errorf("all participants must have a name")
		}
		if p.Contribution < 0 {
			return fmt.Errorf("contribution for %s cannot be negative", p.Name)
		}
		if p.Phone != "" && !core.ValidPhone(p.Phone) {
			return fmt.Errorf("invalid phone number for %s", p.Name)
		}
		sum += p.Contribution
	}

	if math.Abs(sum-in.TotalAmount) > core.Epsilon {
		return fmt.Errorf("sum of contributions ($%.2f) must equal total amount ($%.2f)",
			sum, in.TotalAmount)
	}

	return nil
}
