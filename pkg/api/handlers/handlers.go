package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/cbodonnell/reactions/client/network"
	"github.com/cbodonnell/reactions/pkg/game/constants"
	"github.com/cbodonnell/reactions/pkg/game/types"
	"github.com/cbodonnell/reactions/pkg/log"
	"github.com/cbodonnell/reactions/pkg/reconcile"
	"github.com/cbodonnell/reactions/pkg/state"
	"github.com/gorilla/mux"
)

// Runtime is the part of the client runtime served over the API.
type Runtime interface {
	PostAction(ctx context.Context, action string, payload types.ActionPayload) (*reconcile.AppliedDelta, error)
	View(ctx context.Context) (*state.View, error)
	SetAppIsActive(ctx context.Context, active bool) error
}

// ActionResponse is returned by a successful action.
type ActionResponse struct {
	Delta *reconcile.AppliedDelta `json:"delta"`
	State *state.View             `json:"state"`
}

// ErrorResponse is returned by every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

type AppStateRequest struct {
	Active bool `json:"active"`
}

func HandleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

func HandleGetState(runtime Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		view, err := runtime.View(r.Context())
		if err != nil {
			log.Error("failed to get state: %v", err)
			writeError(w, http.StatusInternalServerError, "Failed to get state")
			return
		}
		writeJSON(w, http.StatusOK, view)
	}
}

func HandleSetAppState(runtime Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req AppStateRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "Invalid request body")
			return
		}
		if err := runtime.SetAppIsActive(r.Context(), req.Active); err != nil {
			log.Error("failed to set app state: %v", err)
			writeError(w, http.StatusServiceUnavailable, "Failed to set app state")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func HandlePostAction(runtime Runtime) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		action := mux.Vars(r)["action"]
		if !constants.IsAction(action) {
			writeError(w, http.StatusNotFound, "Unknown action")
			return
		}

		var payload types.ActionPayload
		if r.ContentLength != 0 {
			if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
				writeError(w, http.StatusBadRequest, "Invalid action payload")
				return
			}
		}

		delta, err := runtime.PostAction(r.Context(), action, payload)
		if err != nil {
			writeError(w, statusFor(err), err.Error())
			return
		}

		view, err := runtime.View(r.Context())
		if err != nil {
			log.Error("failed to get state after %s: %v", action, err)
			writeError(w, http.StatusInternalServerError, "Failed to get state")
			return
		}
		writeJSON(w, http.StatusOK, ActionResponse{Delta: delta, State: view})
	}
}

// statusFor maps a runtime error to an HTTP status.
func statusFor(err error) int {
	switch {
	case reconcile.IsRejected(err):
		return http.StatusConflict
	case reconcile.IsRemote(err):
		return http.StatusUnprocessableEntity
	case network.IsTimeout(err):
		return http.StatusGatewayTimeout
	case network.IsNetworkError(err):
		return http.StatusBadGateway
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		log.Error("unexpected action error: %v", err)
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error("failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg})
}
