package restapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"trainmapper.org/internal/models"
	"trainmapper.org/internal/resolver"
	"trainmapper.org/internal/utils"
)

const maxRequestBodyBytes = 1 << 20

type routeRequest struct {
	Departure string `json:"departure"`
	Arrival   string `json:"arrival"`
}

// routesHandler answers GET /api/routes?from=&to= with the bare search result.
func (api *RestAPI) routesHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	from := query.Get("from")
	to := query.Get("to")

	fieldErrors := utils.ValidatePlaceParams(map[string]string{"from": from, "to": to})
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, ok := api.findRoutes(w, r, utils.SanitizeInput(from), utils.SanitizeInput(to))
	if !ok {
		return
	}
	api.sendJSON(w, r, http.StatusOK, result)
}

// routeRequestHandler answers POST /api/routes, whose body carries the
// departure and arrival extracted from a sentence. Either may be missing.
func (api *RestAPI) routeRequestHandler(w http.ResponseWriter, r *http.Request) {
	var req routeRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		api.errorResponse(w, r, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}

	departure := strings.TrimSpace(req.Departure)
	arrival := strings.TrimSpace(req.Arrival)
	if msg := missingPlaceMessage(departure, arrival); msg != "" {
		api.errorResponse(w, r, http.StatusBadRequest, msg)
		return
	}

	fieldErrors := utils.ValidatePlaceParams(map[string]string{"departure": departure, "arrival": arrival})
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	departure = utils.SanitizeInput(departure)
	arrival = utils.SanitizeInput(arrival)
	result, ok := api.findRoutes(w, r, departure, arrival)
	if !ok {
		return
	}

	api.sendJSON(w, r, http.StatusOK, models.RouteRequestResult{
		Departure: departure,
		Arrival:   arrival,
		TripInfo:  result,
	})
}

func missingPlaceMessage(departure, arrival string) string {
	switch {
	case departure == "" && arrival == "":
		return "Unable to identify departure and arrival city"
	case departure == "":
		return fmt.Sprintf("Found %s as arrival but unable to identify departure city", arrival)
	case arrival == "":
		return fmt.Sprintf("Found %s as departure but unable to identify arrival city", departure)
	}
	return ""
}

// findRoutes runs the planner and writes the error response itself when the
// search fails.
func (api *RestAPI) findRoutes(w http.ResponseWriter, r *http.Request, from, to string) (*models.RouteSearchResult, bool) {
	result, err := api.Planner.FindRoutes(r.Context(), from, to)
	if err != nil {
		if resolver.IsStationNotFound(err) {
			api.errorResponse(w, r, http.StatusNotFound, err.Error())
			return nil, false
		}
		api.serverErrorResponse(w, r, err)
		return nil, false
	}
	return result, true
}
