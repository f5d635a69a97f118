package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"divvy/internal/core"
	"divvy/internal/notify"
	"divvy/internal/services"
)

const (
	allExpensesKey = "all"
	monthsKey      = "months"
)

type participantRequest struct {
	Name         string  `json:"name"`
	Contribution float64 `json:"contribution"`
	PhoneNumber  string  `json:"phone_number"`
}

type createRequest struct {
	TotalAmount       float64              `json:"total_amount"`
	NumPeople         int                  `json:"num_people"`
	Description       string               `json:"description"`
	Participants      []participantRequest `json:"participants"`
	SendNotifications bool                 `json:"send_notifications"`
}

func (s *Server) handleExpenses(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		s.listExpenses(w, r)
	case http.MethodPost:
		s.createExpense(w, r)
	default:
		w.Header().Set("Allow", "GET, POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) createExpense(w http.ResponseWriter, r *http.Request) {
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	participants := make([]core.Participant, len(req.Participants))
	for i, p := range req.Participants {
		participants[i] = core.Participant{
			Name:         strings.TrimSpace(p.Name),
			Contribution: p.Contribution,
			Phone:        strings.TrimSpace(p.PhoneNumber),
		}
	}

	expense, transfers, results, err := s.svc.CreateExpense(r.Context(), services.CreateInput{
		TotalAmount:       req.TotalAmount,
		NumPeople:         req.NumPeople,
		Description:       strings.TrimSpace(req.Description),
		Participants:      participants,
		SendNotifications: req.SendNotifications,
	})
	if err != nil {
		var invalid *services.InvalidInputError
		if errors.As(err, &invalid) {
			writeError(w, http.StatusBadRequest, invalid.Reason)
			return
		}
		slog.ErrorContext(r.Context(), "Expense creation failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	s.invalidateLists(expense.CreatedAt.Year(), int(expense.CreatedAt.Month()))

	if results == nil {
		results = []notify.Result{}
	}
	writeJSON(w, http.StatusCreated, createResponse{
		Success:       true,
		Expense:       expense,
		Settlements:   toTransferDTOs(transfers),
		Notifications: results,
	})
}

func (s *Server) listExpenses(w http.ResponseWriter, r *http.Request) {
	year := queryInt(r, "year")
	month := queryInt(r, "month")

	key := allExpensesKey
	if year != 0 && month != 0 {
		key = listKey(year, month)
	}

	if expenses, ok := s.listCache.Get(key); ok {
		slog.DebugContext(r.Context(), "Expense list cache hit", "key", key)
		writeJSON(w, http.StatusOK, listResponse{Success: true, Expenses: expenses})
		return
	}

	expenses, err := s.svc.ListExpenses(r.Context(), year, month)
	if err != nil {
		slog.ErrorContext(r.Context(), "Expense listing failed",
			"error", err, "year", year, "month", month)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if expenses == nil {
		expenses = []core.Expense{}
	}

	s.listCache.Set(key, expenses)
	writeJSON(w, http.StatusOK, listResponse{Success: true, Expenses: expenses})
}

func (s *Server) handleExpenseByID(w http.ResponseWriter, r *http.Request) {
	idStr := strings.TrimPrefix(r.URL.Path, "/api/expenses/")
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil || id < 1 {
		writeError(w, http.StatusBadRequest, "Invalid expense id")
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.getExpense(w, r, id)
	case http.MethodDelete:
		s.deleteExpense(w, r, id)
	default:
		w.Header().Set("Allow", "GET, DELETE")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
	}
}

func (s *Server) getExpense(w http.ResponseWriter, r *http.Request, id int64) {
	expense, transfers, err := s.svc.GetExpense(r.Context(), id)
	if err != nil {
		if services.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Expense fetch failed", "error", err, "expense_id", id)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, expenseResponse{
		Success:     true,
		Expense:     expense,
		Settlements: toTransferDTOs(transfers),
	})
}

func (s *Server) deleteExpense(w http.ResponseWriter, r *http.Request, id int64) {
	// Fetch first so the record's month cache entry can be dropped.
	expense, _, err := s.svc.GetExpense(r.Context(), id)
	if err == nil {
		defer s.invalidateLists(expense.CreatedAt.Year(), int(expense.CreatedAt.Month()))
	}

	if err := s.svc.DeleteExpense(r.Context(), id); err != nil {
		if services.IsNotFound(err) {
			writeError(w, http.StatusNotFound, "Expense not found")
			return
		}
		slog.ErrorContext(r.Context(), "Expense deletion failed", "error", err, "expense_id", id)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Expense deleted successfully",
	})
}

func (s *Server) handleHistoryMonths(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.Header().Set("Allow", "GET")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	if months, ok := s.monthsCache.Get(monthsKey); ok {
		writeJSON(w, http.StatusOK, monthsResponse{Success: true, Months: months})
		return
	}

	months, err := s.svc.Months(r.Context())
	if err != nil {
		slog.ErrorContext(r.Context(), "Month listing failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Server error")
		return
	}
	if months == nil {
		months = []services.MonthInfo{}
	}

	s.monthsCache.Set(monthsKey, months)
	writeJSON(w, http.StatusOK, monthsResponse{Success: true, Months: months})
}

type testNotificationRequest struct {
	Name        string `json:"name"`
	PhoneNumber string `json:"phone_number"`
}

func (s *Server) handleTestNotification(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", "POST")
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	var req testNotificationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if strings.TrimSpace(req.PhoneNumber) == "" {
		writeError(w, http.StatusBadRequest, "Phone number is required")
		return
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = "Test User"
	}

	participant := core.Participant{
		Name:         name,
		Contribution: 100,
		Phone:        strings.TrimSpace(req.PhoneNumber),
		Balance:      10.50,
	}
	transfers := []core.Transfer{{From: "Alice", To: name, Amount: 10.50}}

	if !s.notifier.Notify(r.Context(), participant, transfers, time.Now().Format("January 2006")) {
		writeError(w, http.StatusInternalServerError, "Failed to send notification. Check delivery credentials.")
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{
		Success: true,
		Message: "Test notification sent successfully",
	})
}

func (s *Server) invalidateLists(year, month int) {
	s.listCache.Delete(listKey(year, month))
	s.listCache.Delete(allExpensesKey)
	s.monthsCache.Delete(monthsKey)
}

func listKey(year, month int) string {
	return strconv.Itoa(year) + "-" + strconv.Itoa(month)
}

func queryInt(r *http.Request, key string) int {
	v := strings.TrimSpace(r.URL.Query().Get(key))
	if v == "" {
		return 0
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0
	}
	return n
}
