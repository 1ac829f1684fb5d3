package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/perfpulse/pulselink/internal/aggregate"
	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/service"
)

// AthleteHandler serves the logged-in athlete's own data. The athlete is
// always taken from the session, never from the URL, so one athlete cannot
// address another's profile.
type AthleteHandler struct {
	identities *service.IdentityService
	logger     *slog.Logger
	now        func() time.Time
}

func NewAthleteHandler(identities *service.IdentityService, logger *slog.Logger) *AthleteHandler {
	return &AthleteHandler{
		identities: identities,
		logger:     logger,
		now:        time.Now,
	}
}

// HandleMe returns the session holder's own document without the PIN,
// athlete profile or coach account depending on the role claim.
//
// HTTP: GET /api/me
func (h *AthleteHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	subject, role, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	if role == auth.RoleCoach {
		account, err := h.identities.Coach(r.Context(), subject)
		if err != nil {
			writeError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, account.Redacted())
		return
	}

	profile, err := h.identities.Profile(r.Context(), subject)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, profile.Redacted())
}

type recordRequest struct {
	Date   string            `json:"date"`
	Amount int               `json:"amount"`
	Attrs  map[string]string `json:"attrs,omitempty"`
}

// HandleAppendRecord appends one record to the named log.
//
// HTTP: POST /api/logs/{log}/records
func (h *AthleteHandler) HandleAppendRecord(w http.ResponseWriter, r *http.Request) {
	subject, _, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	var req recordRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	rec, err := h.identities.AppendRecord(r.Context(), subject, chi.URLParam(r, "log"), model.MetricRecord{
		Date:   req.Date,
		Amount: req.Amount,
		Attrs:  req.Attrs,
	})
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// HandleWeeklySummary returns the week totals per log plus the combined
// total. ?logs=a,b restricts which logs count; absent means all.
// ?date=YYYY-MM-DD picks the week containing that date; absent means now.
//
// HTTP: GET /api/summary/weekly
func (h *AthleteHandler) HandleWeeklySummary(w http.ResponseWriter, r *http.Request) {
	subject, _, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	var logNames []string
	if raw := r.URL.Query().Get("logs"); raw != "" {
		for _, name := range strings.Split(raw, ",") {
			if name = strings.TrimSpace(name); name != "" {
				logNames = append(logNames, name)
			}
		}
	}

	ref, err := refDate(r, h.now)
	if err != nil {
		writeError(w, err)
		return
	}

	totals, err := h.identities.WeeklyTotals(r.Context(), subject, logNames, ref)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, totals)
}

// refDate reads the optional ?date=YYYY-MM-DD reference for week-windowed
// views, defaulting to the current time.
func refDate(r *http.Request, now func() time.Time) (time.Time, error) {
	raw := r.URL.Query().Get("date")
	if raw == "" {
		return now(), nil
	}
	d, err := aggregate.ParseDate(raw)
	if err != nil {
		return time.Time{}, apperror.ValidationFailed("date", "date must be YYYY-MM-DD")
	}
	return d, nil
}
