package middleware

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/mcoot/roomserver/internal/api/apierr"
	"github.com/mcoot/roomserver/internal/middleware"
)

// Recovery creates panic recovery middleware for the API.
// It logs the matched route template, so every room id maps to one route,
// and answers with a JSON internal error.
func Recovery(logger *slog.Logger) func(http.Handler) http.Handler {
	return middleware.Recovery(logger, func(w http.ResponseWriter, r *http.Request, _ any) {
		logger.Error("api handler failed", slog.String("route", routeTemplate(r)))
		apierr.WriteError(w, apierr.NewInternalError())
	})
}

// routeTemplate returns the mux path template for r, or its raw path when
// no route matched
func routeTemplate(r *http.Request) string {
	if route := mux.CurrentRoute(r); route != nil {
		if tmpl, err := route.GetPathTemplate(); err == nil {
			return tmpl
		}
	}
	return r.URL.Path
}
