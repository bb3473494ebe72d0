package middleware

import (
	"io"
	"net/http"
)

// MaxRequestBodyBytes caps uploads, a full samples batch stays well below it.
const MaxRequestBodyBytes = 4 << 20

// LimitAndDrainRequest caps the request body at maxBytes and, once the handler is done,
// drains and closes what is left so the connection can be reused.
func LimitAndDrainRequest(maxBytes int64) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body == nil || r.Body == http.NoBody {
				next.ServeHTTP(w, r)
				return
			}

			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
			next.ServeHTTP(w, r)

			// a body over the limit fails here as well, nothing left worth reading then
			_, _ = io.Copy(io.Discard, r.Body)
			_ = r.Body.Close()
		})
	}
}
