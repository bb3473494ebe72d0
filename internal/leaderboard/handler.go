package leaderboard

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"

	log "github.com/sirupsen/logrus"
)

type serviceFactory interface {
	ForDevice(deviceID string) *Service
}

type RefreshRequest struct {
	// Count overrides the step total computed on the server
	Count *int `json:"count,omitempty"`
}

type ViewResponse struct {
	*View
	Collection string `json:"collection"`
}

type Handler struct {
	services serviceFactory
}

func NewHandler(services serviceFactory) *Handler {
	return &Handler{
		services: services,
	}
}

// HandleRefresh publishes the user's week steps and returns the fresh ranking.
func (handler *Handler) HandleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.refresh")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	var req RefreshRequest
	if r.ContentLength > 0 {
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, "invalid refresh request", http.StatusBadRequest)
			return
		}
	}

	service := handler.services.ForDevice(deviceID)

	var view *View
	var err error
	if req.Count != nil {
		view, err = service.RefreshWithCount(ctx, *req.Count)
	} else {
		session := NewSession(service)
		defer session.Close()
		view, err = session.Start(ctx)
	}
	if err != nil {
		handler.writeError(w, deviceID, "refresh", err)
		return
	}

	handler.writeView(w, service.CollectionKey(), view)
}

// HandleGet returns the ranking without publishing.
func (handler *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.leaderboard.get")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	service := handler.services.ForDevice(deviceID)
	view, err := service.FetchRanking(ctx)
	if err != nil {
		handler.writeError(w, deviceID, "fetch", err)
		return
	}

	handler.writeView(w, service.CollectionKey(), view)
}

func (handler *Handler) writeView(w http.ResponseWriter, collection string, view *View) {
	respJson, err := json.Marshal(ViewResponse{
		View:       view,
		Collection: collection,
	})
	if err != nil {
		log.Errorf("failed to marshal leaderboard view: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, respJson)
}

func (handler *Handler) writeError(w http.ResponseWriter, deviceID, op string, err error) {
	if errors.Is(err, ErrIdentityMissing) {
		log.Debugf("leaderboard %s for device [%s]: %s", op, deviceID, err)
		http.Error(w, ErrIdentityMissing.Error(), http.StatusConflict)
		return
	}
	log.Errorf("leaderboard %s for device [%s]: %s", op, deviceID, err)
	http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
}
