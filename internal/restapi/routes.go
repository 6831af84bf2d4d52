package restapi

import (
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"

	"trainmapper.org/internal/appconf"
	"trainmapper.org/internal/webui"
)

// instrument records the request in the HTTP metrics under the route
// pattern rather than the raw path.
func (api *RestAPI) instrument(pattern string, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(wrapped, r)
		api.Metrics.ObserveHTTPRequest(r.Method, pattern, wrapped.statusCode, time.Since(start))
	})
}

func (api *RestAPI) handle(router *httprouter.Router, method, pattern string, handler http.HandlerFunc) {
	router.Handler(method, pattern, api.instrument(pattern, handler))
}

func (api *RestAPI) SetRoutes(router *httprouter.Router) {
	api.handle(router, http.MethodGet, "/api/routes", api.routesHandler)
	api.handle(router, http.MethodPost, "/api/routes", api.routeRequestHandler)
	api.handle(router, http.MethodGet, "/api/stations", api.stationsHandler)

	api.handle(router, http.MethodGet, "/api/cities", api.listCitiesHandler)
	api.handle(router, http.MethodPost, "/api/cities", api.createCityHandler)
	api.handle(router, http.MethodGet, "/api/cities/stats", api.cityStatsHandler)
	api.handle(router, http.MethodDelete, "/api/cities/:id", api.deleteCityHandler)

	api.handle(router, http.MethodGet, "/healthz", api.healthHandler)
	router.Handler(http.MethodGet, "/metrics", api.Metrics.Handler())

	if api.Config.Environment() != appconf.Production {
		debugUI := &webui.WebUI{Application: api.Application}
		debugUI.SetWebUIRoutes(router)
	}
}

// Handler returns the router wrapped in the middleware chain: request
// logging, security headers, compression and rate limiting, outermost first.
func (api *RestAPI) Handler() http.Handler {
	router := httprouter.New()
	router.NotFound = http.HandlerFunc(api.notFoundResponse)
	router.MethodNotAllowed = http.HandlerFunc(api.methodNotAllowedResponse)
	api.SetRoutes(router)

	handler := api.rateLimiter.Handler(router)
	handler = CompressionMiddleware(handler)
	handler = securityHeaders(handler)
	handler = NewRequestLoggingMiddleware(api.Logger)(handler)
	return handler
}
