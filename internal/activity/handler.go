package activity

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/2beens/fitboard/internal/health"
	"github.com/2beens/fitboard/internal/middleware"
	"github.com/2beens/fitboard/internal/telemetry/tracing"
	"github.com/2beens/fitboard/pkg"

	log "github.com/sirupsen/logrus"
)

const monthLayout = "2006-01"

type providerSource interface {
	ForDevice(deviceID string) health.Provider
}

type Handler struct {
	providers providerSource
	loc       *time.Location
	now       func() time.Time
}

func NewHandler(providers providerSource, loc *time.Location, now func() time.Time) *Handler {
	if loc == nil {
		loc = time.Local
	}
	if now == nil {
		now = time.Now
	}
	return &Handler{
		providers: providers,
		loc:       loc,
		now:       now,
	}
}

func (handler *Handler) service(r *http.Request) (*Service, bool) {
	deviceID, ok := middleware.DeviceID(r.Context())
	if !ok {
		return nil, false
	}
	return NewService(handler.providers.ForDevice(deviceID), handler.loc, handler.now), true
}

func (handler *Handler) HandleToday(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.today")
	defer span.End()

	service, ok := handler.service(r)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	today, err := service.Today(ctx)
	if err != nil {
		log.Errorf("today activity: %s", err)
		if len(today.Failed) == len(todayParts) {
			http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
			return
		}
	}

	writeJSON(w, today)
}

func (handler *Handler) HandleWeek(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.week")
	defer span.End()

	service, ok := handler.service(r)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	stats, err := service.CurrentWeekWorkoutStats(ctx)
	if err != nil {
		log.Errorf("week workout stats: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}

	writeJSON(w, stats)
}

// HandleWorkouts lists the workouts of ?month=YYYY-MM (current month by default),
// optionally capped by ?limit=N.
func (handler *Handler) HandleWorkouts(w http.ResponseWriter, r *http.Request) {
	ctx, span := tracing.GlobalTracer.Start(r.Context(), "handler.activity.workouts")
	defer span.End()

	service, ok := handler.service(r)
	if !ok {
		http.Error(w, "missing device id", http.StatusUnauthorized)
		return
	}

	month := handler.now().In(handler.loc)
	if monthParam := r.URL.Query().Get("month"); monthParam != "" {
		parsed, err := time.ParseInLocation(monthLayout, monthParam, handler.loc)
		if err != nil {
			http.Error(w, "invalid month, expected YYYY-MM", http.StatusBadRequest)
			return
		}
		month = parsed
	}

	limit := 0
	if limitParam := r.URL.Query().Get("limit"); limitParam != "" {
		parsed, err := strconv.Atoi(limitParam)
		if err != nil || parsed < 1 {
			http.Error(w, "invalid limit", http.StatusBadRequest)
			return
		}
		limit = parsed
	}

	workouts, err := service.WorkoutsForMonth(ctx, month)
	if err != nil {
		log.Errorf("workouts for month: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	if limit > 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}

	writeJSON(w, workouts)
}

func writeJSON(w http.ResponseWriter, v any) {
	respJson, err := json.Marshal(v)
	if err != nil {
		log.Errorf("failed to marshal activity response: %s", err)
		http.Error(w, middleware.RetryMessage, http.StatusInternalServerError)
		return
	}
	pkg.WriteJSONResponseOK(w, respJson)
}
