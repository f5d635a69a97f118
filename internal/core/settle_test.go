package core

import (
	"math"
	"reflect"
	"testing"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < Epsilon
}

// netFor sums incoming minus outgoing transfer amounts for one name.
func netFor(name string, transfers []Transfer) float64 {
	var net float64
	for _, t := range transfers {
		if t.To == name {
			net += t.Amount
		}
		if t.From == name {
			net -= t.Amount
		}
	}
	return net
}

func TestSettleEmpty(t *testing.T) {
	ps, ts := Settle(nil, 100)
	if len(ps) != 0 || len(ts) != 0 {
		t.Fatalf("expected empty results, got %d participants, %d transfers", len(ps), len(ts))
	}
}

func TestSettleEqualContributions(t *testing.T) {
	ps, ts := Settle([]Participant{
		{Name: "A", Contribution: 30},
		{Name: "B", Contribution: 30},
		{Name: "C", Contribution: 30},
	}, 90)

	if len(ts) != 0 {
		t.Fatalf("expected no transfers, got %v", ts)
	}
	for _, p := range ps {
		if !almostEqual(p.Balance, 0) {
			t.Fatalf("participant %s balance = %v, want ~0", p.Name, p.Balance)
		}
	}
}

func TestSettleSingleDebtor(t *testing.T) {
	ps, ts := Settle([]Participant{
		{Name: "A", Contribution: 0},
		{Name: "B", Contribution: 30},
		{Name: "C", Contribution: 60},
	}, 90)

	want := map[string]float64{"A": -30, "B": 0, "C": 30}
	for _, p := range ps {
		if !almostEqual(p.Balance, want[p.Name]) {
			t.Fatalf("participant %s balance = %v, want %v", p.Name, p.Balance, want[p.Name])
		}
	}

	if len(ts) != 1 {
		t.Fatalf("expected 1 transfer, got %v", ts)
	}
	if ts[0].From != "A" || ts[0].To != "C" || !almostEqual(ts[0].Amount, 30) {
		t.Fatalf("unexpected transfer %+v", ts[0])
	}
}

func TestSettleSingleCreditor(t *testing.T) {
	_, ts := Settle([]Participant{
		{Name: "A", Contribution: 100},
		{Name: "B", Contribution: 0},
		{Name: "C", Contribution: 0},
	}, 100)

	if len(ts) != 2 {
		t.Fatalf("expected 2 transfers, got %v", ts)
	}
	var toA float64
	for _, tr := range ts {
		if tr.To != "A" {
			t.Fatalf("expected all transfers to A, got %+v", tr)
		}
		if tr.From != "B" && tr.From != "C" {
			t.Fatalf("unexpected debtor %q", tr.From)
		}
		if !almostEqual(tr.Amount, 100.0/3) {
			t.Fatalf("transfer amount = %v, want ~33.33", tr.Amount)
		}
		toA += tr.Amount
	}
	if math.Abs(toA-200.0/3) > 2*Epsilon {
		t.Fatalf("A receives %v, want ~66.67", toA)
	}
}

func TestSettleBalanceProperty(t *testing.T) {
	cases := []struct {
		name          string
		total         float64
		contributions map[string]float64
	}{
		{"two way", 100, map[string]float64{"A": 100, "B": 0}},
		{"uneven", 120, map[string]float64{"A": 10, "B": 20, "C": 90, "D": 0}},
		{"five way", 250, map[string]float64{"A": 250, "B": 0, "C": 0, "D": 0, "E": 0}},
		{"mixed", 75.30, map[string]float64{"A": 50.10, "B": 25.20, "C": 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			var ps []Participant
			for name, c := range tc.contributions {
				ps = append(ps, Participant{Name: name, Contribution: c})
			}

			annotated, ts := Settle(ps, tc.total)

			var sum float64
			debtors, creditors := 0, 0
			for _, p := range annotated {
				sum += p.Balance
				if p.Balance < -Epsilon {
					debtors++
				}
				if p.Balance > Epsilon {
					creditors++
				}
				// Net transfer flow must cancel the balance.
				if !almostEqual(netFor(p.Name, ts)+p.Balance, 0) {
					t.Fatalf("%s: balance %v not covered by transfers (net %v)",
						p.Name, p.Balance, netFor(p.Name, ts))
				}
			}
			if !almostEqual(sum, 0) {
				t.Fatalf("balances sum to %v, want ~0", sum)
			}
			if max := debtors + creditors - 1; len(ts) > max {
				t.Fatalf("%d transfers, want at most %d", len(ts), max)
			}
		})
	}
}

func TestSettleIdempotent(t *testing.T) {
	ps := []Participant{
		{Name: "A", Contribution: 10},
		{Name: "B", Contribution: 70},
		{Name: "C", Contribution: 0},
		{Name: "D", Contribution: 40},
	}

	_, first := Settle(ps, 120)
	_, second := Settle(ps, 120)

	if !reflect.DeepEqual(first, second) {
		t.Fatalf("transfers differ between runs:\n%v\n%v", first, second)
	}
}

func TestSettleDoesNotMutateInput(t *testing.T) {
	ps := []Participant{
		{Name: "A", Contribution: 0},
		{Name: "B", Contribution: 50},
	}

	Settle(ps, 50)

	for _, p := range ps {
		if p.Balance != 0 {
			t.Fatalf("input participant %s mutated: balance = %v", p.Name, p.Balance)
		}
	}
}

func TestSettleEpsilonBoundary(t *testing.T) {
	// A balance of exactly +/-0.01 counts as settled.
	ps, ts := Settle([]Participant{
		{Name: "A", Contribution: 9.99},
		{Name: "B", Contribution: 10.01},
	}, 20)

	if len(ts) != 0 {
		t.Fatalf("expected no transfers at the epsilon boundary, got %v", ts)
	}
	if !almostEqual(ps[0].Balance, -0.01) || !almostEqual(ps[1].Balance, 0.01) {
		t.Fatalf("unexpected balances %v, %v", ps[0].Balance, ps[1].Balance)
	}
}

func TestSettleDebtorMajorOrder(t *testing.T) {
	// Largest debt is settled first, against the largest credit.
	_, ts := Settle([]Participant{
		{Name: "small", Contribution: 20},
		{Name: "big", Contribution: 0},
		{Name: "rich", Contribution: 100},
	}, 120)

	if len(ts) != 2 {
		t.Fatalf("expected 2 transfers, got %v", ts)
	}
	if ts[0].From != "big" || ts[0].To != "rich" || !almostEqual(ts[0].Amount, 40) {
		t.Fatalf("first transfer %+v, want big->rich 40", ts[0])
	}
	if ts[1].From != "small" || ts[1].To != "rich" || !almostEqual(ts[1].Amount, 20) {
		t.Fatalf("second transfer %+v, want small->rich 20", ts[1])
	}
}

func TestRound2(t *testing.T) {
	cases := []struct{ in, want float64 }{
		{33.333333, 33.33},
		{33.336, 33.34},
		{-0.006, -0.01},
		{10, 10},
	}
	for _, tc := range cases {
		if got := Round2(tc.in); got != tc.want {
			t.Fatalf("Round2(%v) = %v, want %v", tc.in, got, tc.want)
		}
	}
}
