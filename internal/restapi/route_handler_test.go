package restapi

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainmapper.org/internal/models"
)

func TestRoutesHandlerFindsItinerary(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	resp, data := doRequest(t, server, http.MethodGet, "/api/routes?from=paris&to=marseille", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var result models.RouteSearchResult
	require.NoError(t, json.Unmarshal(data, &result))

	assert.Equal(t, []string{"Paris Nord", "Paris Gare de Lyon"}, result.StartStations)
	assert.Equal(t, []string{"Marseille Saint-Charles"}, result.EndStations)
	require.Len(t, result.Routes, 1)

	route := result.Routes[0]
	assert.Equal(t, "Paris Gare de Lyon", route.From)
	assert.Equal(t, "Marseille Saint-Charles", route.To)
	assert.Equal(t, "3h 35min", route.TotalDurationFormatted)
	assert.Equal(t, 215.0, route.TotalDuration)
	require.Len(t, route.Segments, 1)
	assert.Equal(t, "T1", route.Segments[0].TripID)
	assert.Equal(t, "Lyon Part-Dieu", route.Segments[0].Stops[1].Name)
}

func TestRoutesHandlerWireFormat(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	resp, data := doRequest(t, server, http.MethodGet, "/api/routes?from=lille&to=paris", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var raw map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &raw))
	assert.Contains(t, raw, "start_stations")
	assert.Contains(t, raw, "end_stations")

	routes := raw["routes"].([]interface{})
	require.Len(t, routes, 1)
	route := routes[0].(map[string]interface{})
	for _, key := range []string{"from", "to", "total_duration_formatted", "total_duration", "segments"} {
		assert.Contains(t, route, key)
	}

	segment := route["segments"].([]interface{})[0].(map[string]interface{})
	for _, key := range []string{"stops", "departure", "arrival", "duration", "trip_id"} {
		assert.Contains(t, segment, key)
	}
	stop := segment["stops"].([]interface{})[0].(map[string]interface{})
	assert.Equal(t, map[string]interface{}{"name": "Lille Europe", "id": "LIL", "lat": 50.639, "lon": 3.075}, stop)
}

func TestRoutesHandlerFuzzyFallback(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	resp, data := doRequest(t, server, http.MethodGet, "/api/routes?from=pariss&to=marseile", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.RouteSearchResult
	require.NoError(t, json.Unmarshal(data, &result))
	require.Len(t, result.Routes, 1)
	assert.Equal(t, "3h 35min", result.Routes[0].TotalDurationFormatted)
}

func TestRoutesHandlerNoRoute(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	resp, data := doRequest(t, server, http.MethodGet, "/api/routes?from=marseille&to=paris", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var result models.RouteSearchResult
	require.NoError(t, json.Unmarshal(data, &result))
	assert.NotNil(t, result.Routes)
	assert.Empty(t, result.Routes)
}

func TestRoutesHandlerStationNotFound(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	testCases := []struct {
		name     string
		endpoint string
		want     string
	}{
		{"unknown origin", "/api/routes?from=xyzzyxyzzyxyz&to=paris", "No stations found similar to 'xyzzyxyzzyxyz'"},
		{"unknown destination", "/api/routes?from=paris&to=xyzzyxyzzyxyz", "No stations found similar to 'xyzzyxyzzyxyz'"},
		{"city without stations", "/api/routes?from=ghosts&to=paris", "No stations found similar to 'ghosts'"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, data := doRequest(t, server, http.MethodGet, tc.endpoint, nil)
			assert.Equal(t, http.StatusNotFound, resp.StatusCode)
			assert.Equal(t, tc.want, decodeError(t, data))
		})
	}
}

func TestRoutesHandlerValidation(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	testCases := []struct {
		name     string
		endpoint string
		field    string
	}{
		{"missing from", "/api/routes?to=paris", "from"},
		{"missing to", "/api/routes?from=paris", "to"},
		{"injection", "/api/routes?from=paris&to=lyon%3B--", "to"},
		{"too long", "/api/routes?from=" + strings.Repeat("a", 201) + "&to=paris", "from"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			resp, data := doRequest(t, server, http.MethodGet, tc.endpoint, nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)

			var body struct {
				FieldErrors map[string][]string `json:"fieldErrors"`
			}
			require.NoError(t, json.Unmarshal(data, &body))
			assert.Contains(t, body.FieldErrors, tc.field)
		})
	}
}

func TestRouteRequestHandler(t *testing.T) {
	server := serveApi(t, createTestApi(t))

	t.Run("both places", func(t *testing.T) {
		resp, data := doRequest(t, server, http.MethodPost, "/api/routes",
			map[string]string{"departure": " Lille ", "arrival": "Paris"})
		require.Equal(t, http.StatusOK, resp.StatusCode)

		var result models.RouteRequestResult
		require.NoError(t, json.Unmarshal(data, &result))
		assert.Equal(t, "Lille", result.Departure)
		assert.Equal(t, "Paris", result.Arrival)
		require.NotNil(t, result.TripInfo)
		require.Len(t, result.TripInfo.Routes, 1)
		assert.Equal(t, "1h 02min", result.TripInfo.Routes[0].TotalDurationFormatted)
	})

	partial := []struct {
		name string
		body map[string]string
		want string
	}{
		{"nothing identified", map[string]string{}, "Unable to identify departure and arrival city"},
		{"no departure", map[string]string{"arrival": "Lyon"}, "Found Lyon as arrival but unable to identify departure city"},
		{"no arrival", map[string]string{"departure": "Paris", "arrival": "  "}, "Found Paris as departure but unable to identify arrival city"},
	}
	for _, tc := range partial {
		t.Run(tc.name, func(t *testing.T) {
			resp, data := doRequest(t, server, http.MethodPost, "/api/routes", tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tc.want, decodeError(t, data))
		})
	}

	t.Run("malformed body", func(t *testing.T) {
		resp, data := doRequest(t, server, http.MethodPost, "/api/routes", "{not json")
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		assert.Equal(t, "Request body must be a JSON object", decodeError(t, data))
	})

	t.Run("station not found", func(t *testing.T) {
		resp, data := doRequest(t, server, http.MethodPost, "/api/routes",
			map[string]string{"departure": "xyzzyxyzzyxyz", "arrival": "Paris"})
		assert.Equal(t, http.StatusNotFound, resp.StatusCode)
		assert.Equal(t, "No stations found similar to 'xyzzyxyzzyxyz'", decodeError(t, data))
	})
}
