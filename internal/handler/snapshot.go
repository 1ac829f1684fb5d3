package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/perfpulse/pulselink/internal/apperror"
	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/service"
)

// SnapshotHandler publishes and resolves read-only share snapshots.
// Resolution is unauthenticated: possession of the code is the grant.
type SnapshotHandler struct {
	snapshots *service.SnapshotService
	logger    *slog.Logger
}

func NewSnapshotHandler(snapshots *service.SnapshotService, logger *slog.Logger) *SnapshotHandler {
	return &SnapshotHandler{snapshots: snapshots, logger: logger}
}

type createSnapshotRequest struct {
	Logs []string `json:"logs,omitempty"`
}

// HandleCreate freezes the session athlete's logs into a new snapshot.
//
// HTTP: POST /api/snapshots  (athlete only)
func (h *SnapshotHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	subject, _, ok := auth.SessionFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Forbidden("no session"))
		return
	}

	var req createSnapshotRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	snap, err := h.snapshots.Create(r.Context(), subject, req.Logs)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, snap)
}

// HandleResolve returns the snapshot stored under a share code.
//
// HTTP: GET /api/snapshots/{code}  (public)
func (h *SnapshotHandler) HandleResolve(w http.ResponseWriter, r *http.Request) {
	snap, err := h.snapshots.Resolve(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
