package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/codes"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/service"
)

// FamilyHandler exposes family management and the family dashboards.
// Athletes create and join families themselves; the dashboards are public
// reads where the family code is the capability.
type FamilyHandler struct {
	relations *service.RelationshipService
	logger    *slog.Logger
	now       func() time.Time
}

func NewFamilyHandler(relations *service.RelationshipService, logger *slog.Logger) *FamilyHandler {
	return &FamilyHandler{
		relations: relations,
		logger:    logger,
		now:       time.Now,
	}
}

type familyRequest struct {
	Name string `json:"name,omitempty"`
}

type familyResponse struct {
	Code   string        `json:"code"`
	Family *model.Family `json:"family"`
}

// HandleCreateFamily allocates a family under a fresh code.
//
// HTTP: POST /api/families
func (h *FamilyHandler) HandleCreateFamily(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	family, code, err := h.relations.CreateFamily(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, familyResponse{Code: code, Family: family})
}

// HandleEnsureFamily creates the family at the given code if it does not
// exist yet. The request is idempotent.
//
// HTTP: PUT /api/families/{code}
func (h *FamilyHandler) HandleEnsureFamily(w http.ResponseWriter, r *http.Request) {
	var req familyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	if err := h.relations.EnsureFamily(r.Context(), chi.URLParam(r, "code"), req.Name); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleGetFamily returns a family and its children.
//
// HTTP: GET /api/families/{code}
func (h *FamilyHandler) HandleGetFamily(w http.ResponseWriter, r *http.Request) {
	code := codes.Normalize(chi.URLParam(r, "code"))
	family, err := h.relations.Family(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, familyResponse{Code: code, Family: family})
}

// HandleLinkChild attaches the session athlete to the family, assigning a
// display color. Linking again returns the existing child unchanged.
//
// HTTP: POST /api/families/{code}/children  (athlete only)
func (h *FamilyHandler) HandleLinkChild(w http.ResponseWriter, r *http.Request) {
	subject, _, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	child, err := h.relations.LinkChild(r.Context(), chi.URLParam(r, "code"), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, child)
}

// HandleWeeklySummary returns the week's training total per child.
// ?date=YYYY-MM-DD selects the week; absent means the current one.
//
// HTTP: GET /api/families/{code}/summary/weekly  (public)
func (h *FamilyHandler) HandleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	ref, err := refDate(r, h.now)
	if err != nil {
		writeError(w, err)
		return
	}

	totals, err := h.relations.FamilyWeeklyTotals(r.Context(), chi.URLParam(r, "code"), ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// HandleCalendar returns the per-day training grid for one month. Year and
// month default to the current month when absent.
//
// HTTP: GET /api/families/{code}/calendar?year=2026&month=8
func (h *FamilyHandler) HandleCalendar(w http.ResponseWriter, r *http.Request) {
	now := h.now()
	year, month := now.Year(), now.Month()

	if raw := r.URL.Query().Get("year"); raw != "" {
		y, err := strconv.Atoi(raw)
		if err != nil {
			writeError(w, apperror.ValidationFailed("year", "year must be a number"))
			return
		}
		year = y
	}
	if raw := r.URL.Query().Get("month"); raw != "" {
		m, err := strconv.Atoi(raw)
		if err != nil || m < 1 || m > 12 {
			writeError(w, apperror.ValidationFailed("month", "month must be 1 through 12"))
			return
		}
		month = time.Month(m)
	}

	grid, err := h.relations.MonthlyCalendar(r.Context(), chi.URLParam(r, "code"), year, month)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, grid)
}
