package restapi

import (
	"context"
	"net/http"
	"time"

	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/models"
)

const registryPingTimeout = 2 * time.Second

func (api *RestAPI) healthHandler(w http.ResponseWriter, r *http.Request) {
	health := models.Health{
		Status:   "ok",
		Stops:    api.Graph.NodeCount(),
		Edges:    api.Graph.EdgeCount(),
		Trips:    api.Trips,
		Registry: "disabled",
	}

	if api.Cities != nil {
		ctx, cancel := context.WithTimeout(r.Context(), registryPingTimeout)
		defer cancel()

		health.Registry = "ok"
		if err := api.Cities.Ping(ctx); err != nil {
			logging.LogError(logging.FromContext(r.Context()), "registry ping failed", err)
			health.Status = "degraded"
			health.Registry = "unavailable"
			api.sendResponse(w, r, models.NewResponse(http.StatusServiceUnavailable, health, "registry unavailable"))
			return
		}
	}

	api.sendResponse(w, r, models.NewOKResponse(health))
}
