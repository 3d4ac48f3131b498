package api

import (
	"net/http"
	"strconv"

	"github.com/mentora-learn/mentora-api/internal/api/shared"
	"github.com/mentora-learn/mentora-api/internal/service"
)

// CreditHandler handles credit balance and transaction history requests.
type CreditHandler struct {
	creditService service.CreditService
}

// NewCreditHandler creates a new CreditHandler with the given dependencies.
func NewCreditHandler(creditService service.CreditService) *CreditHandler {
	return &CreditHandler{
		creditService: creditService,
	}
}

// GetBalance handles GET /credits/balance.
func (h *CreditHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	balance, err := h.creditService.Balance(r.Context(), userID)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, BalanceResponse{Balance: balance})
}

// ListTransactions handles GET /credits/transactions.
// Supports limit and offset query parameters.
func (h *CreditHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	userID, ok := requireUserID(w, r)
	if !ok {
		return
	}

	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)

	txns, err := h.creditService.ListTransactions(r.Context(), userID, limit, offset)
	if err != nil {
		HandleAPIError(w, r, err, "")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, TransactionListResponse{Transactions: txns})
}

// queryInt parses an integer query parameter, falling back to def for
// missing or malformed values.
func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	return v
}
