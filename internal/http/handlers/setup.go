package handlers

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/finance"
	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
	"github.com/hongminglow/fintrack-be/internal/onboarding"
)

const dashboardPath = "/dashboard"

// SetupHandler drives the onboarding wizard over HTTP.
type SetupHandler struct {
	svc *onboarding.Service
}

// NewSetupHandler constructs the handler.
func NewSetupHandler(svc *onboarding.Service) *SetupHandler {
	return &SetupHandler{svc: svc}
}

// Register attaches the wizard routes behind protect.
func (h *SetupHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /api/setup", protect(http.HandlerFunc(h.handleState)))
	mux.Handle("POST /api/setup/income", protect(http.HandlerFunc(h.handleIncome)))
	mux.Handle("POST /api/setup/back", protect(http.HandlerFunc(h.handleBack)))
	mux.Handle("POST /api/setup/expenses", protect(http.HandlerFunc(h.handleExpenses)))
}

func (h *SetupHandler) handleState(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Begin(r.Context(), clientID(r, id))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", view)
}

func (h *SetupHandler) handleIncome(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req dto.SetupIncomeRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	view, err := h.svc.SubmitIncome(r.Context(), clientID(r, id), req.Income, req.Savings)
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", view)
}

func (h *SetupHandler) handleBack(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	view, err := h.svc.Back(r.Context(), clientID(r, id))
	if err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "ok", view)
}

func (h *SetupHandler) handleExpenses(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	var req dto.SetupExpensesRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	form := onboarding.ExpenseForm{
		Fixed:  make(map[finance.FixedCategory]finance.RawAmount, len(req.Expenses)),
		Custom: req.Custom,
	}
	for key, value := range req.Expenses {
		cat, known := finance.ParseFixedCategory(key)
		if !known {
			respond.Error(w, http.StatusBadRequest, "unknown expense category: "+key)
			return
		}
		form.Fixed[cat] = value
	}

	if _, err := h.svc.Complete(r.Context(), clientID(r, id), id, form); err != nil {
		h.writeError(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, "Setup complete.", dto.SetupCompleteResponse{Completed: true, Redirect: dashboardPath})
}

func (h *SetupHandler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, onboarding.ErrAlreadyComplete):
		respond.JSON(w, http.StatusConflict, "setup already complete", dto.SetupCompleteResponse{Completed: true, Redirect: dashboardPath})
	case errors.Is(err, onboarding.ErrWrongState):
		respond.Error(w, http.StatusConflict, err.Error())
	case writeValidation(w, err):
	default:
		logger.Get().Error("setup step failed", zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, msgSaveFailed)
	}
}
