// Package services orchestrates expense operations across validation, the
// settlement engine, storage, notifications, and the event queue.
package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"divvy/internal/amqp"
	"divvy/internal/core"
	"divvy/internal/notify"
	"divvy/internal/storage"
	"divvy/internal/validate"
)

// ExpenseStore is the persistence port consumed by the service.
type ExpenseStore interface {
	Save(ctx context.Context, e core.Expense) (int64, error)
	GetByID(ctx context.Context, id int64) (core.Expense, error)
	ListAll(ctx context.Context) ([]core.Expense, error)
	ListByMonth(ctx context.Context, year, month int) ([]core.Expense, error)
	ListMonths(ctx context.Context) ([]storage.Month, error)
	Delete(ctx context.Context, id int64) error
}

// EventPublisher pushes expense lifecycle events to the ledger worker.
type EventPublisher interface {
	PublishEvent(ctx context.Context, event *amqp.ExpenseEvent) error
}

// InvalidInputError marks a request the validator rejected. Handlers map it
// to a 400 with the reason as the response message.
type InvalidInputError struct {
	Reason string
}

func (e *InvalidInputError) Error() string { return e.Reason }

// CreateInput is an expense submission.
type CreateInput struct {
	TotalAmount       float64
	NumPeople         int
	Description       string
	Participants      []core.Participant
	SendNotifications bool
}

// MonthInfo is one year/month that has expenses, with its display label.
type MonthInfo struct {
	Year    int    `json:"year"`
	Month   int    `json:"month"`
	Display string `json:"display"`
}

// ExpenseService wires the settlement engine to its collaborators. The
// notifier and publisher are optional; a nil collaborator is skipped.
type ExpenseService struct {
	store     ExpenseStore
	rules     validate.Rules
	notifier  notify.Notifier
	publisher EventPublisher
}

func NewExpenseService(store ExpenseStore, rules validate.Rules, notifier notify.Notifier, publisher EventPublisher) *ExpenseService {
	return &ExpenseService{
		store:     store,
		rules:     rules,
		notifier:  notifier,
		publisher: publisher,
	}
}

// CreateExpense validates the submission, computes settlements, persists the
// record, and best-effort notifies participants. Notification or publish
// failures never roll back the persisted expense.
func (s *ExpenseService) CreateExpense(ctx context.Context, in CreateInput) (core.Expense, []core.Transfer, []notify.Result, error) {
	if err := s.rules.Check(validate.ExpenseInput{
		TotalAmount:  in.TotalAmount,
		NumPeople:    in.NumPeople,
		Participants: in.Participants,
	}); err != nil {
		return core.Expense{}, nil, nil, &InvalidInputError{Reason: err.Error()}
	}

	participants := in.Participants
	if len(participants) == 0 {
		participants = defaultParticipants(in.TotalAmount, in.NumPeople)
	}

	annotated, transfers := core.Settle(participants, in.TotalAmount)

	description := in.Description
	if description == "" {
		description = fmt.Sprintf("Expense for %d people", in.NumPeople)
	}

	expense := core.Expense{
		TotalAmount:  in.TotalAmount,
		NumPeople:    in.NumPeople,
		Description:  description,
		CreatedAt:    time.Now().UTC(),
		Participants: annotated,
	}

	id, err := s.store.Save(ctx, expense)
	if err != nil {
		return core.Expense{}, nil, nil, fmt.Errorf("save expense: %w", err)
	}
	expense.ID = id

	var results []notify.Result
	if in.SendNotifications && s.notifier != nil {
		month := expense.MonthLabel()
		for _, p := range annotated {
			if p.Phone == "" {
				continue
			}
			ok := s.notifier.Notify(ctx, p, transfers, month)
			results = append(results, notify.Result{Name: p.Name, Success: ok})
		}
	}

	s.publish(ctx, amqp.NewCreatedEvent(id))

	return expense, transfers, results, nil
}

// GetExpense fetches one record and recomputes its settlements for display.
func (s *ExpenseService) GetExpense(ctx context.Context, id int64) (core.Expense, []core.Transfer, error) {
	expense, err := s.store.GetByID(ctx, id)
	if err != nil {
		return core.Expense{}, nil, err
	}

	annotated, transfers := core.Settle(expense.Participants, expense.TotalAmount)
	expense.Participants = annotated
	return expense, transfers, nil
}

// ListExpenses returns all expenses, or one month's worth when year and
// month are both set.
func (s *ExpenseService) ListExpenses(ctx context.Context, year, month int) ([]core.Expense, error) {
	if year != 0 && month != 0 {
		return s.store.ListByMonth(ctx, year, month)
	}
	return s.store.ListAll(ctx)
}

// DeleteExpense removes a record and announces the deletion to the ledger.
func (s *ExpenseService) DeleteExpense(ctx context.Context, id int64) error {
	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}
	s.publish(ctx, amqp.NewDeletedEvent(id))
	return nil
}

// Months lists the distinct year/month combinations with expenses, newest
// first, each with a "January 2006" display label.
func (s *ExpenseService) Months(ctx context.Context) ([]MonthInfo, error) {
	months, err := s.store.ListMonths(ctx)
	if err != nil {
		return nil, fmt.Errorf("list months: %w", err)
	}

	infos := make([]MonthInfo, len(months))
	for i, m := range months {
		infos[i] = MonthInfo{
			Year:    m.Year,
			Month:   m.Month,
			Display: time.Date(m.Year, time.Month(m.Month), 1, 0, 0, 0, 0, time.UTC).Format("January 2006"),
		}
	}
	return infos, nil
}

// IsNotFound reports whether err means the expense does not exist.
func IsNotFound(err error) bool {
	return errors.Is(err, storage.ErrNotFound)
}

func (s *ExpenseService) publish(ctx context.Context, event *amqp.ExpenseEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping event",
			"action", event.Action, "expense_id", event.ID)
		return
	}
	if err := s.publisher.PublishEvent(ctx, event); err != nil {
		// The record is already persisted; the worker's periodic re-check
		// picks up what the queue missed.
		slog.ErrorContext(ctx, "Failed to publish expense event",
			"action", event.Action, "expense_id", event.ID, "error", err)
	}
}

// defaultParticipants fills in "Person N" names with an equal split when the
// submission names nobody.
func defaultParticipants(total float64, count int) []core.Participant {
	perPerson := total / float64(count)
	participants := make([]core.Participant, count)
	for i := range participants {
		participants[i] = core.Participant{
			Name:         fmt.Sprintf("Person %d", i+1),
			Contribution: perPerson,
		}
	}
	return participants
}
