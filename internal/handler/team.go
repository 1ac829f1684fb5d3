package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/codes"
	"github.com/perfpulse/pulselink/internal/model"
	"github.com/perfpulse/pulselink/internal/service"
)

// TeamHandler exposes team creation and membership. Coaches create teams;
// athletes join them with the code the coach hands out.
type TeamHandler struct {
	relations *service.RelationshipService
	logger    *slog.Logger
}

func NewTeamHandler(relations *service.RelationshipService, logger *slog.Logger) *TeamHandler {
	return &TeamHandler{relations: relations, logger: logger}
}

type createTeamRequest struct {
	Name string `json:"name"`
}

type teamResponse struct {
	Code string      `json:"code"`
	Team *model.Team `json:"team"`
}

// HandleCreateTeam allocates a team and returns its join code.
//
// HTTP: POST /api/teams  (coach only)
func (h *TeamHandler) HandleCreateTeam(w http.ResponseWriter, r *http.Request) {
	var req createTeamRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	team, code, err := h.relations.CreateTeam(r.Context(), req.Name)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, teamResponse{Code: code, Team: team})
}

// HandleGetTeam returns a team and its roster.
//
// HTTP: GET /api/teams/{code}  (coach only)
func (h *TeamHandler) HandleGetTeam(w http.ResponseWriter, r *http.Request) {
	code := codes.Normalize(chi.URLParam(r, "code"))
	team, err := h.relations.Team(r.Context(), code)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, teamResponse{Code: code, Team: team})
}

// HandleJoinTeam adds the session athlete to the team. Repeat joins
// succeed without duplicating the membership.
//
// HTTP: POST /api/teams/{code}/join  (athlete only)
func (h *TeamHandler) HandleJoinTeam(w http.ResponseWriter, r *http.Request) {
	subject, _, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	if err := h.relations.JoinTeam(r.Context(), subject, chi.URLParam(r, "code")); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
