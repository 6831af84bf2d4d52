package restapi

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"

	"trainmapper.org/internal/app"
	"trainmapper.org/internal/appconf"
	"trainmapper.org/internal/cities"
	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
	"trainmapper.org/internal/models"
	"trainmapper.org/internal/schedule"
)

func testConfig() appconf.Config {
	cfg := appconf.Default()
	cfg.Env = "test"
	cfg.RateLimit = 0
	cfg.Registry = appconf.RegistryConfig{Driver: "memory"}
	return cfg
}

func newTestApi(t *testing.T, store cities.Store, seed bool) *RestAPI {
	t.Helper()

	data, err := schedule.LoadFiles(models.GetFixturePath(t, "stops.txt"), models.GetFixturePath(t, "stop_times.txt"), logging.Discard())
	require.NoError(t, err)

	if store != nil && seed {
		_, err = store.SeedNames(context.Background(), cities.DeriveNames(data.Stops))
		require.NoError(t, err)
	}

	application := app.New(testConfig(), logging.Discard(), data, store, metrics.NewCollector())
	api := NewRestAPI(application)
	t.Cleanup(api.Close)
	return api
}

// createTestApiWithStore builds a RestAPI over the testdata timetable with
// store as the city registry, seeded from the stop names. store may be nil.
func createTestApiWithStore(t *testing.T, store cities.Store) *RestAPI {
	return newTestApi(t, store, true)
}

// createTestApi creates a RestAPI backed by an in-memory registry seeded
// from the stop names: ghost, le, lille, lyon, marseille, paris.
func createTestApi(t *testing.T) *RestAPI {
	return createTestApiWithStore(t, cities.NewMemoryRegistry())
}

func serveApi(t *testing.T, api *RestAPI) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(api.Handler())
	t.Cleanup(server.Close)
	return server
}

func doRequest(t *testing.T, server *httptest.Server, method, endpoint string, body interface{}) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		payload, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequest(method, server.URL+endpoint, reader)
	require.NoError(t, err)
	if reader != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer logging.SafeCloseWithLogging(resp.Body,
		slog.Default().With(slog.String("component", "test")),
		"http_response_body")

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

// serveAndRetrieveEndpoint issues a GET and decodes the response envelope.
func serveAndRetrieveEndpoint(t *testing.T, api *RestAPI, endpoint string) (*http.Response, models.ResponseModel) {
	t.Helper()

	resp, data := doRequest(t, serveApi(t, api), http.MethodGet, endpoint, nil)

	var response models.ResponseModel
	require.NoError(t, json.Unmarshal(data, &response))
	return resp, response
}

func decodeError(t *testing.T, data []byte) string {
	t.Helper()

	var body models.ErrorResponse
	require.NoError(t, json.Unmarshal(data, &body))
	return body.Error
}
