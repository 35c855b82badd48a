package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/meltforce/ironlog/internal/auth"
	"github.com/meltforce/ironlog/internal/models"
	"github.com/meltforce/ironlog/internal/syncengine"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ok",
		"sync":   s.engine != nil && s.engine.Configured(),
	})
}

func (s *Server) handleIssueToken(w http.ResponseWriter, r *http.Request) {
	if s.issuer == nil {
		writeError(w, http.StatusServiceUnavailable, syncengine.ErrNotConfigured.Error())
		return
	}
	var req models.TokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "userId is required")
		return
	}

	token, exp, err := s.issuer.Issue(auth.Identity{UserID: req.UserID, DeviceID: req.DeviceID})
	if err != nil {
		s.log.Error("token error", "error", err)
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	tokensIssuedTotal.Inc()
	s.log.Info("token issued", "user", req.UserID, "device", req.DeviceID)
	writeJSON(w, http.StatusOK, models.TokenResponse{Token: token, ExpiresAt: exp})
}

func (s *Server) handlePush(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := identityFromContext(r)

	var req models.PushRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		observeSync("push", "invalid", start, 0)
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}
	if req.DeviceID == "" {
		req.DeviceID = id.DeviceID
	}
	if req.DeviceID == "" {
		observeSync("push", "invalid", start, 0)
		writeError(w, http.StatusBadRequest, "deviceId is required")
		return
	}

	syncedAt, err := s.engine.Push(r.Context(), id.UserID, req)
	if err != nil {
		s.syncFailed(w, "push", start, err)
		return
	}
	observeSync("push", "ok", start, req.Data.Count())
	writeJSON(w, http.StatusOK, models.PushResponse{Success: true, SyncedAt: syncedAt})
}

func (s *Server) handlePull(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	id := identityFromContext(r)

	since, err := parseSince(r.URL.Query().Get("since"))
	if err != nil {
		observeSync("pull", "invalid", start, 0)
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	data, syncedAt, err := s.engine.Pull(r.Context(), id.UserID, since)
	if err != nil {
		s.syncFailed(w, "pull", start, err)
		return
	}
	observeSync("pull", "ok", start, data.Count())
	writeJSON(w, http.StatusOK, models.PullResponse{Success: true, Data: *data, SyncedAt: syncedAt})
}

// syncFailed maps engine errors to status codes. Persistence failures are 500
// with the underlying cause.
func (s *Server) syncFailed(w http.ResponseWriter, op string, start time.Time, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, syncengine.ErrAuthRequired):
		status = http.StatusUnauthorized
	case errors.Is(err, syncengine.ErrNotConfigured):
		status = http.StatusServiceUnavailable
	case errors.Is(err, syncengine.ErrInvalidPayload):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error(op+" error", "error", err)
		observeSync(op, "error", start, 0)
	} else {
		observeSync(op, "rejected", start, 0)
	}
	writeError(w, status, err.Error())
}

// parseSince accepts an RFC 3339 instant. Empty means a full pull.
func parseSince(v string) (time.Time, error) {
	if v == "" {
		return time.Time{}, nil
	}
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid since: %w", err)
	}
	return t, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
