// Package resolver turns free-text place names into station ids of the
// transit graph.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hbollon/go-edlib"

	"trainmapper.org/internal/graph"
	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/metrics"
)

// DefaultThreshold is the largest edit distance accepted by the fuzzy
// fallback.
const DefaultThreshold = 7

// CityRegistry lists the known city names used for fuzzy matching.
type CityRegistry interface {
	CityNames(ctx context.Context) ([]string, error)
}

type station struct {
	id    string
	lower string
}

// Resolver matches names against station names of a graph. It is safe for
// concurrent use as long as the registry is.
type Resolver struct {
	stations  []station
	registry  CityRegistry
	threshold int
	logger    *slog.Logger
	metrics   *metrics.Collector
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithThreshold overrides DefaultThreshold.
func WithThreshold(n int) Option {
	return func(r *Resolver) { r.threshold = n }
}

// WithLogger sets the logger used for fuzzy match diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) { r.logger = logger }
}

// WithMetrics counts fuzzy lookups in c.
func WithMetrics(c *metrics.Collector) Option {
	return func(r *Resolver) { r.metrics = c }
}

// New builds a Resolver over the nodes of g. registry may be nil, in which
// case only prefix matching is performed.
func New(g *graph.Graph, registry CityRegistry, opts ...Option) *Resolver {
	r := &Resolver{
		registry:  registry,
		threshold: DefaultThreshold,
	}
	for _, opt := range opts {
		opt(r)
	}
	r.logger = logging.OrDefault(r.logger).With(slog.String("component", logging.ComponentResolver))

	for _, n := range g.Nodes() {
		r.stations = append(r.stations, station{id: n.ID, lower: strings.ToLower(n.Name)})
	}
	return r
}

// MatchPrefix returns the ids of every station whose name starts with name,
// ignoring case, in graph order. "par" matches "Paris Nord" but not "Le Parc".
func (r *Resolver) MatchPrefix(name string) []string {
	prefix := strings.ToLower(strings.TrimSpace(name))
	if prefix == "" {
		return nil
	}

	var ids []string
	for _, s := range r.stations {
		if strings.HasPrefix(s.lower, prefix) {
			ids = append(ids, s.id)
		}
	}
	return ids
}

// ClosestCity returns the registry city with the smallest Damerau-Levenshtein
// distance to name, provided that distance does not exceed the threshold.
// Equal distances resolve to the lexicographically smallest lowercased name.
func (r *Resolver) ClosestCity(ctx context.Context, name string) (string, bool, error) {
	if r.registry == nil {
		return "", false, nil
	}

	cities, err := r.registry.CityNames(ctx)
	if err != nil {
		return "", false, fmt.Errorf("error listing registry cities: %w", err)
	}

	input := strings.ToLower(strings.TrimSpace(name))
	best, bestLower, bestDistance := "", "", -1
	for _, city := range cities {
		lower := strings.ToLower(city)
		d := edlib.OSADamerauLevenshteinDistance(input, lower)
		if d > r.threshold {
			continue
		}
		if bestDistance == -1 || d < bestDistance || (d == bestDistance && lower < bestLower) {
			best, bestLower, bestDistance = city, lower, d
		}
	}

	return best, bestDistance != -1, nil
}

// Resolve returns the station ids matching name. A prefix match is tried
// first; when it finds nothing the closest registry city is prefix matched
// instead. A *StationNotFoundError is returned when both come up empty.
func (r *Resolver) Resolve(ctx context.Context, name string) ([]string, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &StationNotFoundError{Name: name}
	}

	if ids := r.MatchPrefix(name); len(ids) > 0 {
		return ids, nil
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	city, ok, err := r.ClosestCity(ctx, name)
	if err != nil {
		return nil, err
	}
	r.metrics.FuzzyLookup(ok)
	if !ok {
		return nil, &StationNotFoundError{Name: name}
	}

	ids := r.MatchPrefix(city)
	r.logger.Debug("fuzzy city match",
		slog.String("input", name),
		slog.String("city", city),
		slog.Int("stations", len(ids)))
	if len(ids) == 0 {
		return nil, &StationNotFoundError{Name: name}
	}
	return ids, nil
}
