package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDeviceCheck(t *testing.T) {
	testCases := []struct {
		name               string
		path               string
		method             string
		deviceID           string
		expectedStatusCode int
		expectedDeviceID   string
	}{
		{
			name:               "ValidDevice",
			path:               "/charts/steps",
			method:             "GET",
			deviceID:           "A1B2C3D4-0000-4E5F-9A8B-112233445566",
			expectedStatusCode: http.StatusOK,
			expectedDeviceID:   "A1B2C3D4-0000-4E5F-9A8B-112233445566",
		},
		{
			name:               "MissingDevice",
			path:               "/charts/steps",
			method:             "GET",
			expectedStatusCode: http.StatusUnauthorized,
		},
		{
			name:               "InvalidDevice",
			path:               "/charts/steps",
			method:             "GET",
			deviceID:           "x'; drop table",
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "TooShortDevice",
			path:               "/leaderboard",
			method:             "GET",
			deviceID:           "abc",
			expectedStatusCode: http.StatusBadRequest,
		},
		{
			name:               "Preflight",
			path:               "/leaderboard/refresh",
			method:             "OPTIONS",
			expectedStatusCode: http.StatusOK,
		},
		{
			name:               "OpenPath",
			path:               "/",
			method:             "GET",
			expectedStatusCode: http.StatusOK,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			var gotDeviceID string
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotDeviceID, _ = DeviceID(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(tc.method, tc.path, nil)
			if tc.deviceID != "" {
				req.Header.Set(DeviceIDHeader, tc.deviceID)
			}
			rr := httptest.NewRecorder()

			DeviceCheck("/")(next).ServeHTTP(rr, req)

			assert.Equal(t, tc.expectedStatusCode, rr.Code)
			assert.Equal(t, tc.expectedDeviceID, gotDeviceID)
		})
	}
}
