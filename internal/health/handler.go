package health

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/metrics"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"

	log "github.com/sirupsen/logrus"
)

//go:generate mockgen -source=$GOFILE -destination=health_mocks_test.go -package=health_test

const maxUploadBatch = 5000

type ingester interface {
	AddSamples(ctx context.Context, deviceID string, samples []Sample) (int64, error)
	AddWorkouts(ctx context.Context, deviceID string, workouts []Workout) ([]int64, error)
	Authorize(ctx context.Context, deviceID string, metrics []Metric) error
}

type deviceProviders interface {
	ForDevice(deviceID string) Provider
	Invalidate(deviceID string, start, end time.Time)
}

type AddSamplesResponse struct {
	Added int64 `json:"added"`
}

type AddWorkoutsResponse struct {
	IDs []int64 `json:"ids"`
}

type AuthorizationRequest struct {
	Metrics []Metric `json:"metrics"`
}

type AuthorizationResponse struct {
	Authorized bool     `json:"authorized"`
	Metrics    []Metric `json:"metrics"`
}

type Handler struct {
	repo           ingester
	providers      deviceProviders
	metricsManager *metrics.Manager
}

func NewHandler(repo ingester, providers deviceProviders, metricsManager *metrics.Manager) *Handler {
	return &Handler{
		repo:           repo,
		providers:      providers,
		metricsManager: metricsManager,
	}
}

func (handler *Handler) HandleAddSamples(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.samples.add")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var samples []Sample
	if err := json.NewDecoder(r.Body).Decode(&samples); err != nil {
		log.Tracef("add samples, unmarshal json: %s", err)
		http.Error(w, "invalid samples", http.StatusBadRequest)
		return
	}
	if err := validateSamples(samples); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	added, err := handler.repo.AddSamples(ctx, deviceID, samples)
	if err != nil {
		log.Errorf("failed to add %d samples for device [%s]: %s", len(samples), deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	start, end := samplesSpan(samples)
	handler.providers.Invalidate(deviceID, start, end)
	if handler.metricsManager != nil {
		handler.metricsManager.CounterIngestedSamples.Add(float64(added))
	}

	resp, err := json.Marshal(AddSamplesResponse{Added: added})
	if err != nil {
		log.Errorf("failed to marshal add samples response: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	log.Debugf("device [%s]: %d samples added", deviceID, added)
	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}

func (handler *Handler) HandleAddWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.workouts.add")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	if r.Header.Get("Content-Type") != pkg.ContentType.JSON {
		http.Error(w, "invalid content type", http.StatusBadRequest)
		return
	}

	var workouts []Workout
	if err := json.NewDecoder(r.Body).Decode(&workouts); err != nil {
		log.Tracef("add workouts, unmarshal json: %s", err)
		http.Error(w, "invalid workouts", http.StatusBadRequest)
		return
	}
	if err := validateWorkouts(workouts); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	ids, err := handler.repo.AddWorkouts(ctx, deviceID, workouts)
	if err != nil {
		log.Errorf("failed to add %d workouts for device [%s]: %s", len(workouts), deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	resp, err := json.Marshal(AddWorkoutsResponse{IDs: ids})
	if err != nil {
		log.Errorf("failed to marshal add workouts response: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	pkg.WriteResponseBytes(w, pkg.ContentType.JSON, resp, http.StatusCreated)
}

// HandleGrantAuthorization records that the device shares the given metrics.
func (handler *Handler) HandleGrantAuthorization(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.authorization.grant")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	var req AuthorizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid authorization request", http.StatusBadRequest)
		return
	}
	if len(req.Metrics) == 0 {
		http.Error(w, "no metrics", http.StatusBadRequest)
		return
	}
	for _, m := range req.Metrics {
		if !m.IsValid() {
			http.Error(w, fmt.Sprintf("unknown metric: %s", m), http.StatusBadRequest)
			return
		}
	}

	if err := handler.repo.Authorize(ctx, deviceID, req.Metrics); err != nil {
		log.Errorf("failed to authorize metrics for device [%s]: %s", deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	handler.writeAuthorization(w, true, req.Metrics)
}

// HandleAuthorizationStatus reports whether all app metrics are readable for the device.
func (handler *Handler) HandleAuthorizationStatus(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.health.authorization.status")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	err := handler.providers.ForDevice(deviceID).QueryAuthorization(ctx, AllMetrics)
	switch {
	case err == nil:
		handler.writeAuthorization(w, true, AllMetrics)
	case errors.Is(err, ErrNotAuthorized):
		log.Debugf("device [%s] not authorized: %s", deviceID, err)
		handler.writeAuthorization(w, false, AllMetrics)
	default:
		log.Errorf("failed to query authorization for device [%s]: %s", deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
	}
}

func (handler *Handler) writeAuthorization(w http.ResponseWriter, authorized bool, metrics []Metric) {
	resp, err := json.Marshal(AuthorizationResponse{
		Authorized: authorized,
		Metrics:    metrics,
	})
	if err != nil {
		log.Errorf("failed to marshal authorization response: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, resp)
}

func validateSamples(samples []Sample) error {
	if len(samples) == 0 {
		return errors.New("no samples")
	}
	if len(samples) > maxUploadBatch {
		return fmt.Errorf("too many samples, max %d", maxUploadBatch)
	}
	for i, s := range samples {
		switch {
		case !s.Metric.IsValid() || s.Metric == MetricWorkouts:
			return fmt.Errorf("sample %d: unknown metric: %s", i, s.Metric)
		case s.Timestamp.IsZero():
			return fmt.Errorf("sample %d: missing timestamp", i)
		case s.Value < 0:
			return fmt.Errorf("sample %d: negative value", i)
		case s.Metric == MetricStandHour && s.Value != StandHourStood && s.Value != StandHourIdle:
			return fmt.Errorf("sample %d: invalid stand hour value", i)
		}
	}
	return nil
}

func validateWorkouts(workouts []Workout) error {
	if len(workouts) == 0 {
		return errors.New("no workouts")
	}
	if len(workouts) > maxUploadBatch {
		return fmt.Errorf("too many workouts, max %d", maxUploadBatch)
	}
	for i, w := range workouts {
		switch {
		case !w.ActivityType.IsValid():
			return fmt.Errorf("workout %d: unknown activity type: %s", i, w.ActivityType)
		case w.Start.IsZero() || w.End.IsZero():
			return fmt.Errorf("workout %d: missing start or end", i)
		case w.End.Before(w.Start):
			return fmt.Errorf("workout %d: ends before it starts", i)
		case w.EnergyKcal != nil && *w.EnergyKcal < 0:
			return fmt.Errorf("workout %d: negative energy", i)
		}
	}
	return nil
}

// samplesSpan returns the smallest [start, end) holding every sample.
func samplesSpan(samples []Sample) (time.Time, time.Time) {
	start, end := samples[0].Timestamp, samples[0].Timestamp
	for _, s := range samples[1:] {
		if s.Timestamp.Before(start) {
			start = s.Timestamp
		}
		if s.Timestamp.After(end) {
			end = s.Timestamp
		}
	}
	return start, end.Add(time.Second)
}
