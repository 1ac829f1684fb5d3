package handler_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/perfpulse/pulselink/internal/auth"
	"github.com/perfpulse/pulselink/internal/handler"
	"github.com/perfpulse/pulselink/internal/service"
	sqlitestore "github.com/perfpulse/pulselink/internal/store/sqlite"
)

func newAuthHandler(t *testing.T) *handler.AuthHandler {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	docs, err := sqlitestore.New(":memory:", logger)
	require.NoError(t, err)
	t.Cleanup(func() { docs.Close() })

	tokens, err := auth.NewTokenService("test-secret-at-least-16-chars!!")
	require.NoError(t, err)

	identities := service.NewIdentityService(docs, auth.NewPINServiceForTest(4), nil, logger)
	return handler.NewAuthHandler(identities, tokens, logger)
}

func postJSON(t *testing.T, h http.HandlerFunc, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func TestAuthHandler_RegisterAthlete(t *testing.T) {
	h := newAuthHandler(t)

	rr := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register",
		`{"identity":"Bob Smith","pin":"1234","confirm":"1234"}`)

	assert.Equal(t, http.StatusCreated, rr.Code)

	var res struct {
		Token   string `json:"token"`
		Profile struct {
			Identity string `json:"identity"`
			PIN      string `json:"pin"`
		} `json:"profile"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
	assert.NotEmpty(t, res.Token)
	assert.Equal(t, "bobsmith", res.Profile.Identity)
	assert.Empty(t, res.Profile.PIN, "PIN must never appear in responses")

	// A session cookie accompanies the body token.
	cookies := rr.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, "token", cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
}

func TestAuthHandler_RegisterAthlete_Errors(t *testing.T) {
	h := newAuthHandler(t)

	t.Run("malformed body", func(t *testing.T) {
		rr := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register", `{"identity":`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("pin mismatch", func(t *testing.T) {
		rr := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register",
			`{"identity":"carol","pin":"1234","confirm":"9999"}`)
		assert.Equal(t, http.StatusBadRequest, rr.Code)
	})

	t.Run("duplicate identity", func(t *testing.T) {
		first := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register",
			`{"identity":"dana","pin":"1234","confirm":"1234"}`)
		require.Equal(t, http.StatusCreated, first.Code)

		rr := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register",
			`{"identity":" DANA ","pin":"5678","confirm":"5678"}`)
		assert.Equal(t, http.StatusConflict, rr.Code)

		var res handler.ErrorResponse
		require.NoError(t, json.NewDecoder(rr.Body).Decode(&res))
		assert.Equal(t, "conflict", res.Error)
	})
}

func TestAuthHandler_LoginAthlete(t *testing.T) {
	h := newAuthHandler(t)

	reg := postJSON(t, h.HandleRegisterAthlete, "/api/athletes/register",
		`{"identity":"erin","pin":"1234","confirm":"1234"}`)
	require.Equal(t, http.StatusCreated, reg.Code)

	t.Run("correct pin", func(t *testing.T) {
		rr := postJSON(t, h.HandleLoginAthlete, "/api/athletes/login",
			`{"identity":"ERIN","pin":"1234"}`)
		assert.Equal(t, http.StatusOK, rr.Code)
	})

	t.Run("wrong pin", func(t *testing.T) {
		rr := postJSON(t, h.HandleLoginAthlete, "/api/athletes/login",
			`{"identity":"erin","pin":"0000"}`)
		assert.Equal(t, http.StatusForbidden, rr.Code)
	})

	t.Run("unknown identity", func(t *testing.T) {
		rr := postJSON(t, h.HandleLoginAthlete, "/api/athletes/login",
			`{"identity":"ghost","pin":"1234"}`)
		assert.Equal(t, http.StatusNotFound, rr.Code)
	})
}

func TestAuthHandler_CoachFlow(t *testing.T) {
	h := newAuthHandler(t)

	rr := postJSON(t, h.HandleRegisterCoach, "/api/coaches/register",
		`{"identity":"Coach.Kim","pin":"1234","confirm":"1234"}`)
	assert.Equal(t, http.StatusCreated, rr.Code)

	rr = postJSON(t, h.HandleLoginCoach, "/api/coaches/login",
		`{"identity":"coach.kim","pin":"1234"}`)
	assert.Equal(t, http.StatusOK, rr.Code)
}
