package app

import (
	"log/slog"

	"trainmapper.org/internal/appconf"
	"trainmapper.org/internal/cities"
	"trainmapper.org/internal/graph"
	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
	"trainmapper.org/internal/planner"
	"trainmapper.org/internal/resolver"
	"trainmapper.org/internal/schedule"
)

// Application holds the dependencies for our HTTP handlers, helpers,
// and middleware. The graph is built once at startup and is read-only
// afterwards, so handlers may share it freely.
type Application struct {
	Config   appconf.Config
	Logger   *slog.Logger
	Graph    *graph.Graph
	Trips    int
	Resolver *resolver.Resolver
	Planner  *planner.Planner
	Cities   cities.Store
	Metrics  *metrics.Collector
}

// New builds the transit graph from data and wires the resolver and planner
// on top of it. store and collector may be nil.
func New(cfg appconf.Config, logger *slog.Logger, data *schedule.Data, store cities.Store, collector *metrics.Collector) *Application {
	logger = logging.OrDefault(logger)

	g := graph.Build(data, logger)
	collector.SetGraphSize(g.NodeCount(), g.EdgeCount())

	var registry resolver.CityRegistry
	if store != nil {
		registry = store
	}

	r := resolver.New(g, registry,
		resolver.WithThreshold(cfg.Resolver.FuzzyThreshold),
		resolver.WithLogger(logger),
		resolver.WithMetrics(collector))

	p := planner.New(g, r,
		planner.WithLogger(logger),
		planner.WithMetrics(collector))

	return &Application{
		Config:   cfg,
		Logger:   logger,
		Graph:    g,
		Trips:    data.TripCount(),
		Resolver: r,
		Planner:  p,
		Cities:   store,
		Metrics:  collector,
	}
}
