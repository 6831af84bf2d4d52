package planner

import (
	"context"

	"trainmapper.org/internal/models"
)

// enumerate searches every origin/destination pair, skipping pairs of the
// same station. Unreachable pairs are left out of the result.
func (p *Planner) enumerate(ctx context.Context, origins, destinations []string) ([]models.Route, error) {
	routes := []models.Route{}
	for _, from := range origins {
		for _, to := range destinations {
			if from == to {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			path, ok := p.finder.ShortestPath(from, to)
			p.metrics.PathSearch(ok)
			if !ok || len(path) == 0 {
				continue
			}
			routes = append(routes, BuildRoute(p.graph, path))
		}
	}
	return routes, nil
}
