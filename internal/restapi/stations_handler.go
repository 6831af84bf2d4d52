package restapi

import (
	"net/http"

	"trainmapper.org/internal/models"
	"trainmapper.org/internal/resolver"
	"trainmapper.org/internal/utils"
)

func (api *RestAPI) stationsHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	if err := utils.ValidatePlaceName(query); err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"q": {err.Error()}})
		return
	}
	query = utils.SanitizeInput(query)

	ids, err := api.Resolver.Resolve(r.Context(), query)
	if err != nil {
		if resolver.IsStationNotFound(err) {
			api.errorResponse(w, r, http.StatusNotFound, err.Error())
			return
		}
		api.serverErrorResponse(w, r, err)
		return
	}

	stations := make([]models.StopRef, 0, len(ids))
	for _, id := range ids {
		node, ok := api.Graph.Node(id)
		if !ok {
			continue
		}
		stations = append(stations, models.NewStopRef(node.ID, node.Name, node.Lat, node.Lon))
	}

	api.sendResponse(w, r, models.NewOKResponse(models.StationSearchResult{
		Query:    query,
		Stations: stations,
	}))
}
