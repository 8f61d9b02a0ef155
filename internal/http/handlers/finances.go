package handlers

import (
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/finance"
	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
	"github.com/hongminglow/fintrack-be/internal/reconcile"
	"github.com/hongminglow/fintrack-be/internal/storage"
	"github.com/hongminglow/fintrack-be/internal/users"
)

const msgSaveFailed = "Failed to save data. Please try again."

// FinanceHandler reads and replaces a user's finance snapshot and expense set.
type FinanceHandler struct {
	resolver *users.Resolver
	rec      *reconcile.Reconciler
}

// NewFinanceHandler constructs the handler.
func NewFinanceHandler(resolver *users.Resolver, rec *reconcile.Reconciler) *FinanceHandler {
	return &FinanceHandler{resolver: resolver, rec: rec}
}

// Register attaches finance and expense routes behind protect.
func (h *FinanceHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /api/finances", protect(http.HandlerFunc(h.handleGetFinances)))
	mux.Handle("PUT /api/finances", protect(http.HandlerFunc(h.handlePutFinances)))
	mux.Handle("GET /api/expenses", protect(http.HandlerFunc(h.handleGetExpenses)))
	mux.Handle("PUT /api/expenses", protect(http.HandlerFunc(h.handlePutExpenses)))
}

func (h *FinanceHandler) handleGetFinances(w http.ResponseWriter, r *http.Request) {
	userID, ok := lookupUser(w, r, h.resolver)
	if !ok {
		return
	}
	row, err := h.rec.Snapshot(r.Context(), userID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) || errors.Is(err, storage.ErrDuplicateSnapshot) {
			respond.Error(w, http.StatusNotFound, "no finance data")
			return
		}
		logger.Get().Error("read finances", zap.Stringer("user_id", userID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to read finances")
		return
	}
	snap := finance.Snapshot{Income: row.MonthlyIncome, Savings: row.TotalSavings}
	respond.JSON(w, http.StatusOK, "ok", dto.FinancesResponse{
		MonthlyIncome:      row.MonthlyIncome,
		TotalSavings:       row.TotalSavings,
		OnboardingNetWorth: snap.OnboardingNetWorth(),
	})
}

func (h *FinanceHandler) handlePutFinances(w http.ResponseWriter, r *http.Request) {
	userID, ok := lookupUser(w, r, h.resolver)
	if !ok {
		return
	}
	var req dto.UpdateFinancesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.MonthlyIncome.Empty() || req.TotalSavings.Empty() {
		respond.Error(w, http.StatusBadRequest, "Please fill out both income and savings.")
		return
	}

	income := finance.ParseAmount(string(req.MonthlyIncome))
	savings := finance.ParseAmount(string(req.TotalSavings))
	if err := h.rec.ReplaceFinanceSnapshot(r.Context(), userID, income, savings); err != nil {
		logger.Get().Error("replace finances", zap.Stringer("user_id", userID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	snap := finance.Snapshot{Income: income, Savings: savings}
	respond.JSON(w, http.StatusOK, "Finances updated.", dto.FinancesResponse{
		MonthlyIncome:      income,
		TotalSavings:       savings,
		OnboardingNetWorth: snap.OnboardingNetWorth(),
	})
}

func (h *FinanceHandler) handleGetExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := lookupUser(w, r, h.resolver)
	if !ok {
		return
	}
	records, err := h.rec.Expenses(r.Context(), userID)
	if err != nil {
		logger.Get().Error("read expenses", zap.Stringer("user_id", userID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to read expenses")
		return
	}
	snap := finance.Snapshot{Expenses: make([]finance.Expense, len(records))}
	for i, rec := range records {
		snap.Expenses[i] = finance.Expense{Category: rec.Category, Amount: rec.Amount}
	}
	respond.JSON(w, http.StatusOK, "ok", dto.ExpensesResponse{
		Expenses: snap.Expenses,
		Total:    snap.TotalExpenses(),
	})
}

func (h *FinanceHandler) handlePutExpenses(w http.ResponseWriter, r *http.Request) {
	userID, ok := lookupUser(w, r, h.resolver)
	if !ok {
		return
	}
	var req dto.UpdateExpensesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	n, err := h.rec.ReplaceExpenseSet(r.Context(), userID, req.Expenses)
	if err != nil {
		logger.Get().Error("replace expenses", zap.Stringer("user_id", userID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, msgSaveFailed)
		return
	}
	respond.JSON(w, http.StatusOK, "Expenses updated.", dto.UpdateExpensesResponse{Saved: n})
}

// lookupUser maps the caller to an internal user without creating one. Users
// who have not finished setup get a 404.
func lookupUser(w http.ResponseWriter, r *http.Request, resolver *users.Resolver) (uuid.UUID, bool) {
	id, ok := identity(w, r)
	if !ok {
		return uuid.Nil, false
	}
	userID, err := resolver.Lookup(r.Context(), id.UID)
	if err != nil {
		if errors.Is(err, users.ErrUserNotFound) {
			respond.Error(w, http.StatusNotFound, "user not found")
			return uuid.Nil, false
		}
		logger.Get().Error("lookup user", zap.String("uid", id.UID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to look up user")
		return uuid.Nil, false
	}
	return userID, true
}
