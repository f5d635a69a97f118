package core

import (
	"errors"
	"strings"
	"time"
)

type (
	// Participant is one person inside an expense. Balance is computed by
	// Settle: positive means the participant is owed money, negative means
	// they owe money.
	Participant struct {
		Name         string  `json:"name"`
		Contribution float64 `json:"contribution"`
		Phone        string  `json:"phone_number,omitempty"`
		Balance      float64 `json:"balance"`
	}

	// Transfer is a single directed payment instruction from a debtor to a
	// creditor. Amount is kept raw internally and rounded to two decimals
	// at the serialization boundary.
	Transfer struct {
		From   string  `json:"from"`
		To     string  `json:"to"`
		Amount float64 `json:"amount"`
	}

	// Expense is an immutable expense record: created once, then only read
	// or deleted.
	Expense struct {
		ID           int64         `json:"id"`
		TotalAmount  float64       `json:"total_amount"`
		NumPeople    int           `json:"num_people"`
		Description  string        `json:"description"`
		CreatedAt    time.Time     `json:"created_at"`
		Participants []Participant `json:"participants"`
	}
)

var (
	ErrEmptyName      = errors.New("participant name cannot be empty")
	ErrNegativeAmount = errors.New("contribution cannot be negative")
	ErrInvalidPhone   = errors.New("invalid phone number")
)

func (p Participant) Validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return ErrEmptyName
	}
	if p.Contribution < 0 {
		return ErrNegativeAmount
	}
	if p.Phone != "" && !ValidPhone(p.Phone) {
		return ErrInvalidPhone
	}
	return nil
}

// MonthLabel formats the expense creation month for display and for
// notification messages, e.g. "January 2026".
func (e Expense) MonthLabel() string {
	return e.CreatedAt.Format("January 2006")
}
