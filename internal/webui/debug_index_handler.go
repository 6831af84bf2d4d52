package webui

import (
	"embed"
	"html/template"
	"net/http"

	"github.com/davecgh/go-spew/spew"

	"trainmapper.org/internal/app"
	"trainmapper.org/internal/graph"
)

//go:embed debug_index.html
var templateFS embed.FS

var debugTemplate = template.Must(template.ParseFS(templateFS, "debug_index.html"))

// WebUI serves a plain HTML dump of the loaded network for debugging.
type WebUI struct {
	*app.Application
}

type debugData struct {
	Title string
	Pre   string
}

func writeDebugData(w http.ResponseWriter, title string, data interface{}) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")

	err := debugTemplate.Execute(w, debugData{
		Title: title,
		Pre:   spew.Sdump(data),
	})
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

func (webUI *WebUI) debugIndexHandler(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	dataType := query.Get("dataType")

	var data interface{}
	var title string

	switch dataType {
	case "stats":
		data = webUI.Graph.Stats()
		title = "Transit Graph - Build Statistics"
	case "stops":
		data = webUI.Graph.Nodes()
		title = "Transit Graph - Stops"
	case "edges":
		from := query.Get("from")
		if from == "" {
			data = map[string]string{"error": "Please provide the stop id to list edges from, e.g. ?dataType=edges&from=PGL."}
			title = "Transit Graph - Edges"
			break
		}
		data = edgesFrom(webUI.Graph, from)
		title = "Transit Graph - Edges from " + from
	case "cities":
		if webUI.Cities == nil {
			data = map[string]string{"error": "No city registry configured."}
		} else {
			names, err := webUI.Cities.CityNames(r.Context())
			if err != nil {
				data = map[string]string{"error": err.Error()}
			} else {
				data = names
			}
		}
		title = "City Registry - Names"
	case "config":
		data = webUI.Config.Redacted()
		title = "Configuration"
	default:
		data = map[string]string{
			"error": "Please use one of the following: stats, stops, edges, cities, config.",
		}
		title = "Choose a data type"
	}

	writeDebugData(w, title, data)
}

func edgesFrom(g *graph.Graph, from string) interface{} {
	if !g.HasNode(from) {
		return map[string]string{"error": "Unknown stop id " + from}
	}
	edges := g.Edges(from)
	values := make([]graph.Edge, 0, len(edges))
	for _, e := range edges {
		values = append(values, *e)
	}
	return values
}
