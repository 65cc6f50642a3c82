package middleware

import (
	"net/http"

	log "github.com/sirupsen/logrus"
)

func LogRequest() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if log.IsLevelEnabled(log.TraceLevel) {
				log.WithFields(log.Fields{
					"route":  routeName(r),
					"method": r.Method,
					"path":   r.URL.Path,
					"remote": r.RemoteAddr,
					"ua":     r.Header.Get("User-Agent"),
					"length": r.ContentLength,
				}).Trace("request")
			}
			next.ServeHTTP(w, r)
		})
	}
}
