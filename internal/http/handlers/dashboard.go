package handlers

import (
	"errors"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/hongminglow/fintrack-be/internal/http/respond"
	"github.com/hongminglow/fintrack-be/internal/logger"
	"github.com/hongminglow/fintrack-be/internal/models/dto"
	"github.com/hongminglow/fintrack-be/internal/reconcile"
	"github.com/hongminglow/fintrack-be/internal/users"
)

// DashboardHandler serves the derived metrics for the caller. Callers who
// never finished setup get has_data=false rather than a 404.
type DashboardHandler struct {
	resolver *users.Resolver
	rec      *reconcile.Reconciler
	now      func() time.Time
}

// NewDashboardHandler constructs the handler. now defaults to time.Now.
func NewDashboardHandler(resolver *users.Resolver, rec *reconcile.Reconciler, now func() time.Time) *DashboardHandler {
	if now == nil {
		now = time.Now
	}
	return &DashboardHandler{resolver: resolver, rec: rec, now: now}
}

// Register attaches the dashboard route behind protect.
func (h *DashboardHandler) Register(mux *http.ServeMux, protect Middleware) {
	mux.Handle("GET /api/dashboard", protect(http.HandlerFunc(h.handleDashboard)))
}

func (h *DashboardHandler) handleDashboard(w http.ResponseWriter, r *http.Request) {
	id, ok := identity(w, r)
	if !ok {
		return
	}
	userID, err := h.resolver.Lookup(r.Context(), id.UID)
	if errors.Is(err, users.ErrUserNotFound) {
		respond.JSON(w, http.StatusOK, "no data", dto.DashboardResponse{HasData: false})
		return
	}
	if err != nil {
		logger.Get().Error("lookup user", zap.String("uid", id.UID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to look up user")
		return
	}

	snap, found, err := h.rec.Load(r.Context(), userID)
	if err != nil {
		logger.Get().Error("load dashboard", zap.Stringer("user_id", userID), zap.Error(err))
		respond.Error(w, http.StatusInternalServerError, "failed to load dashboard")
		return
	}
	if !found {
		respond.JSON(w, http.StatusOK, "no data", dto.DashboardResponse{HasData: false})
		return
	}
	d := snap.Dashboard(h.now())
	respond.JSON(w, http.StatusOK, "ok", dto.DashboardResponse{HasData: true, Dashboard: &d})
}
