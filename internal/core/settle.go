// Package core holds the settlement engine and the domain types it operates
// on. The package is pure: no I/O, no shared state, safe for concurrent use.
package core

import (
	"math"
	"sort"
)

// Epsilon is the absolute tolerance below which a balance counts as settled.
// It is a currency-cents-scale policy constant, not a floating-point
// afterthought: values in (-0.01, 0.01) never appear as debtor or creditor.
const Epsilon = 0.01

// Settle splits total equally among participants and computes the minimal
// set of transfers that zeroes out every balance.
//
// Each participant's balance is set to contribution minus the equal share.
// Debtors (balance < -Epsilon) are matched against creditors
// (balance > +Epsilon) with a two-pointer greedy walk, largest debt and
// largest credit first, so each step fully resolves at least one party. The
// result is at most len(debtors)+len(creditors)-1 transfers, emitted in
// debtor-major order. Callers may rely on that ordering.
//
// The input slice is not mutated; Settle returns an annotated copy.
func Settle(participants []Participant, total float64) ([]Participant, []Transfer) {
	if len(participants) == 0 {
		return []Participant{}, []Transfer{}
	}

	share := total / float64(len(participants))

	annotated := make([]Participant, len(participants))
	copy(annotated, participants)
	for i := range annotated {
		annotated[i].Balance = annotated[i].Contribution - share
	}

	// Partition into working copies so greedy updates below stay local and
	// the returned balances keep their pre-matching values.
	type party struct {
		name    string
		balance float64
	}
	var debtors, creditors []party
	for _, p := range annotated {
		switch {
		case p.Balance < -Epsilon:
			debtors = append(debtors, party{p.Name, p.Balance})
		case p.Balance > Epsilon:
			creditors = append(creditors, party{p.Name, p.Balance})
		}
	}

	// Largest debt first, largest credit first.
	sort.SliceStable(debtors, func(i, j int) bool { return debtors[i].balance < debtors[j].balance })
	sort.SliceStable(creditors, func(i, j int) bool { return creditors[i].balance > creditors[j].balance })

	transfers := []Transfer{}
	i, j := 0, 0
	for i < len(debtors) && j < len(creditors) {
		amount := math.Min(-debtors[i].balance, creditors[j].balance)

		transfers = append(transfers, Transfer{
			From:   debtors[i].name,
			To:     creditors[j].name,
			Amount: amount,
		})

		debtors[i].balance += amount
		creditors[j].balance -= amount

		// Both pointers advance independently; they can move in the same
		// step when debt and credit zero out together.
		if math.Abs(debtors[i].balance) < Epsilon {
			i++
		}
		if math.Abs(creditors[j].balance) < Epsilon {
			j++
		}
	}

	return annotated, transfers
}
