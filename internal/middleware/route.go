package middleware

import (
	"net/http"

	"github.com/gorilla/mux"
)

// routeName returns the name of the matched mux route, or the raw path when
// the request did not go through a named route.
func routeName(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if name := route.GetName(); name != "" {
			return name
		}
	}
	return r.URL.Path
}
