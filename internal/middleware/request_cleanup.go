package middleware

import (
	"io"
	"net/http"
)

// maxDrainBytes bounds how much of an unread body (e.g. a rejected audio
// upload) is read before the connection is closed instead of reused.
const maxDrainBytes = 256 << 10

// DrainAndCloseRequest drains what the handler left of the request body, up
// to maxDrainBytes, and closes it.
func DrainAndCloseRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			next.ServeHTTP(w, r)
			if r.Body == nil {
				return
			}
			_, _ = io.CopyN(io.Discard, r.Body, maxDrainBytes)
			_ = r.Body.Close()
		})
	}
}
