// Package planner answers route queries: it resolves both place names to
// stations, searches a shortest path for every origin/destination pair and
// turns each path into an itinerary.
package planner

import (
	"context"
	"log/slog"
	"time"

	"trainmapper.org/internal/graph"
	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
	"trainmapper.org/internal/models"
	"trainmapper.org/internal/resolver"
)

// StationResolver maps a place name to station ids.
type StationResolver interface {
	Resolve(ctx context.Context, name string) ([]string, error)
}

// PathFinder finds the cheapest path between two stops.
type PathFinder interface {
	ShortestPath(from, to string) (graph.Path, bool)
}

// DijkstraFinder searches Graph with graph.ShortestPath. A nil Weight means
// graph.ByMinutes.
type DijkstraFinder struct {
	Graph  *graph.Graph
	Weight graph.WeightFunc
}

// ShortestPath implements PathFinder.
func (f DijkstraFinder) ShortestPath(from, to string) (graph.Path, bool) {
	return graph.ShortestPath(f.Graph, from, to, f.Weight)
}

// Planner answers route queries over one graph. It is safe for concurrent use.
type Planner struct {
	graph    *graph.Graph
	resolver StationResolver
	finder   PathFinder
	logger   *slog.Logger
	metrics  *metrics.Collector
}

// Option configures a Planner.
type Option func(*Planner)

// WithFinder replaces the default Dijkstra search.
func WithFinder(f PathFinder) Option {
	return func(p *Planner) { p.finder = f }
}

// WithLogger sets the logger used for search diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Planner) { p.logger = logger }
}

// WithMetrics records searches in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(p *Planner) { p.metrics = c }
}

// New builds a Planner over g that resolves place names with r.
func New(g *graph.Graph, r StationResolver, opts ...Option) *Planner {
	p := &Planner{
		graph:    g,
		resolver: r,
		finder:   DijkstraFinder{Graph: g},
	}
	for _, opt := range opts {
		opt(p)
	}
	p.logger = logging.OrDefault(p.logger).With(slog.String("component", logging.ComponentPlanner))
	return p
}

// FindRoutes resolves origin and destination and returns one itinerary per
// reachable station pair. When the origin cannot be resolved the destination
// is not looked at and no path search runs. Resolution failures are returned
// as *resolver.StationNotFoundError.
func (p *Planner) FindRoutes(ctx context.Context, origin, destination string) (*models.RouteSearchResult, error) {
	start := time.Now()

	origins, err := p.resolver.Resolve(ctx, origin)
	if err != nil {
		p.observeFailure(err, start)
		return nil, err
	}
	destinations, err := p.resolver.Resolve(ctx, destination)
	if err != nil {
		p.observeFailure(err, start)
		return nil, err
	}

	routes, err := p.enumerate(ctx, origins, destinations)
	if err != nil {
		p.observeFailure(err, start)
		return nil, err
	}

	result := &models.RouteSearchResult{
		StartStations: p.stationNames(origins),
		EndStations:   p.stationNames(destinations),
		Routes:        routes,
	}

	outcome := "found"
	if len(routes) == 0 {
		outcome = "no_route"
	}
	p.metrics.ObserveRouteSearch(outcome, len(routes), time.Since(start))
	p.logger.Debug("route search",
		slog.String("origin", origin),
		slog.String("destination", destination),
		slog.Int("origins", len(origins)),
		slog.Int("destinations", len(destinations)),
		slog.Int("routes", len(routes)),
		slog.Duration("duration", time.Since(start)))

	return result, nil
}

func (p *Planner) observeFailure(err error, start time.Time) {
	outcome := "error"
	if resolver.IsStationNotFound(err) {
		outcome = "not_found"
	}
	p.metrics.ObserveRouteSearch(outcome, 0, time.Since(start))
}

// stationNames returns the distinct names of the given stations in first-seen
// order.
func (p *Planner) stationNames(ids []string) []string {
	names := make([]string, 0, len(ids))
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		n, ok := p.graph.Node(id)
		if !ok || seen[n.Name] {
			continue
		}
		seen[n.Name] = true
		names = append(names, n.Name)
	}
	return names
}
