package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"divvy/internal/core"
	"divvy/internal/notify"
	"divvy/internal/services"
)

// transferDTO is a Transfer with its amount rounded to two decimals, the
// shape clients see.
type transferDTO struct {
	From   string  `json:"from"`
	To     string  `json:"to"`
	Amount float64 `json:"amount"`
}

func toTransferDTOs(transfers []core.Transfer) []transferDTO {
	out := make([]transferDTO, len(transfers))
	for i, t := range transfers {
		out[i] = transferDTO{From: t.From, To: t.To, Amount: core.Round2(t.Amount)}
	}
	return out
}

type createResponse struct {
	Success       bool            `json:"success"`
	Expense       core.Expense    `json:"expense"`
	Settlements   []transferDTO   `json:"settlements"`
	Notifications []notify.Result `json:"notifications"`
}

type expenseResponse struct {
	Success     bool          `json:"success"`
	Expense     core.Expense  `json:"expense"`
	Settlements []transferDTO `json:"settlements"`
}

type listResponse struct {
	Success  bool           `json:"success"`
	Expenses []core.Expense `json:"expenses"`
}

type monthsResponse struct {
	Success bool                 `json:"success"`
	Months  []services.MonthInfo `json:"months"`
}

type messageResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, errorResponse{Error: message})
}
