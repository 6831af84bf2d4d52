package restapi

import (
	"time"

	"trainmapper.org/internal/app"
)

type RestAPI struct {
	*app.Application
	rateLimiter *RateLimitMiddleware
}

// NewRestAPI creates a new RestAPI instance with initialized rate limiter
func NewRestAPI(app *app.Application) *RestAPI {
	return &RestAPI{
		Application: app,
		rateLimiter: NewRateLimitMiddleware(app.Config.RateLimit, time.Second, app.Config.TrustedProxies, app.Metrics),
	}
}

// Close releases the background work of the API's middleware.
func (api *RestAPI) Close() {
	api.rateLimiter.Stop()
}
