package aggregation

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"

	"github.com/gorilla/mux"
	log "github.com/sirupsen/logrus"
)

type providerSource interface {
	ForDevice(deviceID string) health.Provider
}

type ChartsResponse struct {
	Charts
	// Failed is set when some of the series could not be loaded
	Failed  bool   `json:"failed"`
	Message string `json:"message,omitempty"`
}

type Handler struct {
	providers  providerSource
	engineOpts []EngineOption
}

func NewHandler(providers providerSource, engineOpts ...EngineOption) *Handler {
	return &Handler{
		providers:  providers,
		engineOpts: engineOpts,
	}
}

func (handler *Handler) engine(deviceID string) *Engine {
	return NewEngine(handler.providers.ForDevice(deviceID), handler.engineOpts...)
}

// HandleAllSteps returns every chart window, keeping the ones that loaded when others failed.
func (handler *Handler) HandleAllSteps(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.charts.steps.all")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	dashboard := NewDashboard(handler.engine(deviceID))
	defer dashboard.Close()

	refreshErr := dashboard.Refresh(ctx)
	charts := dashboard.Snapshot()
	if refreshErr != nil {
		log.Errorf("charts refresh for device [%s]: %s", deviceID, refreshErr)
		if errors.Is(refreshErr, ErrDashboardClosed) || charts == (Charts{}) {
			http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
			return
		}
	}

	resp := ChartsResponse{
		Charts: charts,
		Failed: refreshErr != nil,
	}
	if resp.Failed {
		resp.Message = middleware.RetryMessage
	}

	respJson, err := json.Marshal(resp)
	if err != nil {
		log.Errorf("failed to marshal charts: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, respJson)
}

// HandlePresetSteps returns the series of a single window preset.
func (handler *Handler) HandlePresetSteps(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.charts.steps.preset")
	defer span.End()

	deviceID, ok := middleware.DeviceID(ctx)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	preset, err := ParsePreset(mux.Vars(r)["preset"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	engine := handler.engine(deviceID)

	var series any
	if preset.IsDaily() {
		series, err = engine.DailySteps(ctx, preset)
	} else {
		ytd, oneYear, sweepErr := engine.YearToDateAndOneYear(ctx)
		err = sweepErr
		if preset == PresetYearToDate {
			series = ytd
		} else {
			series = oneYear
		}
	}
	if err != nil {
		log.Errorf("%s steps for device [%s]: %s", preset, deviceID, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	respJson, err := json.Marshal(series)
	if err != nil {
		log.Errorf("failed to marshal %s series: %s", preset, err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, respJson)
}
