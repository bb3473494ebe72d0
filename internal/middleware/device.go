package middleware

import (
	"context"
	"net/http"
	"regexp"

	"github.com/2beens/fitboard/internal/telemetry/tracing"

	log "github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const DeviceIDHeader = "X-Device-ID"

var deviceIDRegex = regexp.MustCompile(`^[A-Za-z0-9_-]{8,64}$`)

type deviceIDCtxKey struct{}

// WithDeviceID returns a copy of ctx carrying the device ID.
func WithDeviceID(ctx context.Context, deviceID string) context.Context {
	return context.WithValue(ctx, deviceIDCtxKey{}, deviceID)
}

// DeviceID returns the device ID set by DeviceCheck.
func DeviceID(ctx context.Context) (string, bool) {
	deviceID, ok := ctx.Value(deviceIDCtxKey{}).(string)
	return deviceID, ok && deviceID != ""
}

// DeviceCheck rejects requests without a valid device ID header, except for
// preflight requests and the given open paths.
func DeviceCheck(openPaths ...string) func(next http.Handler) http.Handler {
	allowedPaths := make(map[string]bool, len(openPaths))
	for _, p := range openPaths {
		allowedPaths[p] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, span := tracing.GlobalTracer.Start(r.Context(), "middleware.device")
			defer span.End()

			if r.Method == http.MethodOptions || allowedPaths[r.URL.Path] {
				span.SetStatus(codes.Ok, "ok")
				next.ServeHTTP(w, r)
				return
			}

			deviceID := r.Header.Get(DeviceIDHeader)
			if deviceID == "" {
				log.Tracef("[missing device id] => %s", r.URL.Path)
				http.Error(w, "missing device id", http.StatusUnauthorized)
				span.SetStatus(codes.Error, "missing-device-id")
				return
			}
			if !deviceIDRegex.MatchString(deviceID) {
				log.Tracef("[invalid device id] [%s] => %s", deviceID, r.URL.Path)
				http.Error(w, "invalid device id", http.StatusBadRequest)
				span.SetStatus(codes.Error, "invalid-device-id")
				return
			}

			span.SetAttributes(attribute.String("device.id", deviceID))
			span.SetStatus(codes.Ok, "ok")
			next.ServeHTTP(w, r.WithContext(WithDeviceID(ctx, deviceID)))
		})
	}
}
