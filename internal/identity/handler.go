package identity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"

	log "github.com/sirupsen/logrus"
)

type IdentityRequest struct {
	Username string `json:"username"`
}

type IdentityResponse struct {
	Username string `json:"username"`
}

type Handler struct {
	stores func(deviceID string) Store
}

func NewHandler(stores func(deviceID string) Store) *Handler {
	return &Handler{
		stores: stores,
	}
}

func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.identity.get")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	username, err := Username(ctx, handler.stores(deviceID))
	if errors.Is(err, ErrUsernameNotSet) {
		http.Error(w, ErrUsernameNotSet.Error(), http.StatusNotFound)
		return
	}
	if err != nil {
		log.Errorf("get username of device [%s]: %s", deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	handler.writeIdentity(w, username)
}

func (handler *Handler) HandleSet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.identity.set")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	var req IdentityRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid identity request", http.StatusBadRequest)
		return
	}

	username, err := SetUsername(ctx, handler.stores(deviceID), req.Username)
	if errors.Is(err, ErrInvalidUsername) {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err != nil {
		log.Errorf("set username of device [%s]: %s", deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	log.Debugf("device [%s] is now [%s]", deviceID, username)
	handler.writeIdentity(w, username)
}

func (handler *Handler) writeIdentity(w http.ResponseWriter, username string) {
	respJson, err := json.Marshal(IdentityResponse{Username: username})
	if err != nil {
		log.Errorf("failed to marshal identity: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, respJson)
}
