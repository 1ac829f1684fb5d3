package handler

import (
	"log/slog"
	"net/http"

	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/service"
)

// sessionCookieMaxAge matches the token lifetime issued by the token
// service.
const sessionCookieMaxAge = 12 * 60 * 60

// AuthHandler owns registration and login for both roles. Successful
// logins set the session token in an HttpOnly cookie; API clients can use
// the token from the response body as a bearer token instead.
type AuthHandler struct {
	identities *service.IdentityService
	tokens     *auth.TokenService
	logger     *slog.Logger
}

func NewAuthHandler(identities *service.IdentityService, tokens *auth.TokenService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		identities: identities,
		tokens:     tokens,
		logger:     logger,
	}
}

type credentialsRequest struct {
	Identity string   `json:"identity"`
	PIN      string   `json:"pin"`
	Confirm  string   `json:"confirm,omitempty"`
	Logs     []string `json:"logs,omitempty"`
}

type sessionResponse struct {
	Token   string `json:"token"`
	Profile any    `json:"profile"`
}

// HandleRegisterAthlete creates an athlete profile and logs it in.
//
// HTTP: POST /api/athletes/register
func (h *AuthHandler) HandleRegisterAthlete(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.identities.RegisterAthlete(r.Context(), req.Identity, req.PIN, req.Confirm, req.Logs)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issueSession(w, r, profile.Identity, auth.RoleAthlete, http.StatusCreated, profile.Redacted())
}

// HandleLoginAthlete authenticates an athlete, migrating legacy profiles
// transparently on success.
//
// HTTP: POST /api/athletes/login
func (h *AuthHandler) HandleLoginAthlete(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	profile, err := h.identities.AuthenticateAthlete(r.Context(), req.Identity, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issueSession(w, r, profile.Identity, auth.RoleAthlete, http.StatusOK, profile.Redacted())
}

// HandleRegisterCoach creates a coach account and logs it in.
//
// HTTP: POST /api/coaches/register
func (h *AuthHandler) HandleRegisterCoach(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.identities.RegisterCoach(r.Context(), req.Identity, req.PIN, req.Confirm)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issueSession(w, r, account.Identity, auth.RoleCoach, http.StatusCreated, account.Redacted())
}

// HandleLoginCoach authenticates a coach.
//
// HTTP: POST /api/coaches/login
func (h *AuthHandler) HandleLoginCoach(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, err)
		return
	}

	account, err := h.identities.AuthenticateCoach(r.Context(), req.Identity, req.PIN)
	if err != nil {
		writeError(w, err)
		return
	}

	h.issueSession(w, r, account.Identity, auth.RoleCoach, http.StatusOK, account.Redacted())
}

// HandleLogout clears the session cookie. Tokens are stateless, so a
// bearer token stays valid until expiry; logout only affects the cookie.
//
// HTTP: POST /api/auth/logout
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) issueSession(w http.ResponseWriter, r *http.Request, subject, role string, status int, profile any) {
	token, err := h.tokens.Generate(subject, role)
	if err != nil {
		h.logger.Error("issuing session token",
			slog.String("subject", subject),
			slog.String("error", err.Error()),
		)
		writeError(w, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     "token",
		Value:    token,
		Path:     "/",
		MaxAge:   sessionCookieMaxAge,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, status, sessionResponse{Token: token, Profile: profile})
}
