package restapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"trainmapper.org/internal/cities"
	"trainmapper.org/internal/models"
	"trainmapper.org/internal/utils"
)

type createCityRequest struct {
	Name *string `json:"name"`
}

func toCityModel(c cities.City) models.City {
	return models.City{ID: c.ID, Name: c.Name, CreatedAt: c.CreatedAt}
}

// requireRegistry reports whether a registry is configured, answering 503
// when it is not.
func (api *RestAPI) requireRegistry(w http.ResponseWriter, r *http.Request) bool {
	if api.Cities == nil {
		api.errorResponse(w, r, http.StatusServiceUnavailable, "city registry is not configured")
		return false
	}
	return true
}

func (api *RestAPI) listCitiesHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireRegistry(w, r) {
		return
	}

	page, perPage, fieldErrors := utils.ParsePagination(r.URL.Query())
	if len(fieldErrors) > 0 {
		api.validationErrorResponse(w, r, fieldErrors)
		return
	}

	result, err := api.Cities.List(r.Context(), page, perPage)
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	items := make([]models.City, 0, len(result.Items))
	for _, c := range result.Items {
		items = append(items, toCityModel(c))
	}

	api.sendResponse(w, r, models.NewListResponse(items, models.Pagination{
		Page:       result.Page,
		PerPage:    result.PerPage,
		TotalPages: result.TotalPages(),
		TotalItems: result.Total,
		HasNext:    result.HasNext(),
		HasPrev:    result.HasPrev(),
	}))
}

func (api *RestAPI) createCityHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireRegistry(w, r) {
		return
	}

	var req createCityRequest
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxRequestBodyBytes))
	if err := decoder.Decode(&req); err != nil {
		api.errorResponse(w, r, http.StatusBadRequest, "Request body must be a JSON object")
		return
	}
	if req.Name == nil {
		api.errorResponse(w, r, http.StatusBadRequest, "Name field is required")
		return
	}

	name, err := utils.ValidateAndSanitizePlaceName(*req.Name)
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"name": {err.Error()}})
		return
	}

	city, err := api.Cities.Create(r.Context(), name)
	switch {
	case errors.Is(err, cities.ErrDuplicateCity):
		api.errorResponse(w, r, http.StatusConflict, fmt.Sprintf("City '%s' already exists", name))
		return
	case errors.Is(err, cities.ErrEmptyName):
		api.errorResponse(w, r, http.StatusBadRequest, "Name field is required")
		return
	case err != nil:
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewResponse(http.StatusCreated, toCityModel(city), "Created"))
}

func (api *RestAPI) deleteCityHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireRegistry(w, r) {
		return
	}

	id, err := utils.ParseInt64Param(r, "id")
	if err != nil {
		api.validationErrorResponse(w, r, map[string][]string{"id": {err.Error()}})
		return
	}

	err = api.Cities.Delete(r.Context(), id)
	if errors.Is(err, cities.ErrCityNotFound) {
		api.errorResponse(w, r, http.StatusNotFound, fmt.Sprintf("City %d not found", id))
		return
	}
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(map[string]string{
		"message": fmt.Sprintf("City %d deleted successfully", id),
	}))
}

func (api *RestAPI) cityStatsHandler(w http.ResponseWriter, r *http.Request) {
	if !api.requireRegistry(w, r) {
		return
	}

	total, err := api.Cities.Count(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}

	api.sendResponse(w, r, models.NewOKResponse(models.CityStats{TotalCities: total}))
}
