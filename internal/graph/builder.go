package graph

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"
	"time"

	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/schedule"
)

// Build constructs the transit graph from parsed schedule rows.
//
// Stops whose coordinates do not parse are skipped with a warning. Stop times
// are grouped by trip and ordered by stop_sequence; every consecutive pair
// becomes an edge weighted by arrival(next) - departure(this) in minutes.
// Edges that touch a skipped stop, or whose weight is negative, are dropped.
func Build(data *schedule.Data, logger *slog.Logger) *Graph {
	start := time.Now()
	logger = logging.OrDefault(logger).With(slog.String("component", logging.ComponentGraph))

	g := newGraph()
	addStops(g, data.Stops, logger)
	addTrips(g, data.StopTimes, logger)

	g.stats.Stops = g.NodeCount()
	g.stats.Edges = g.EdgeCount()

	logging.LogOperation(logger, "transit_graph_built",
		slog.Int("nodes", g.stats.Stops),
		slog.Int("edges", g.stats.Edges),
		slog.Int("trips", g.stats.Trips),
		slog.Int("skipped_stops", g.stats.SkippedStops),
		slog.Int("dropped_edges", g.stats.DroppedEdges),
		slog.Duration("duration", time.Since(start)))

	return g
}

func addStops(g *Graph, stops []schedule.Stop, logger *slog.Logger) {
	for _, stop := range stops {
		lat, latErr := parseCoordinate(stop.Lat)
		lon, lonErr := parseCoordinate(stop.Lon)
		if latErr != nil || lonErr != nil {
			g.stats.SkippedStops++
			logger.Warn("malformed stop coordinates",
				slog.String("stop_id", stop.ID),
				slog.String("stop_lat", stop.Lat),
				slog.String("stop_lon", stop.Lon))
			continue
		}

		if !g.addNode(Node{ID: stop.ID, Name: stop.Name, Lat: lat, Lon: lon}) {
			g.stats.DuplicateStops++
			logger.Warn("duplicate stop id, keeping first occurrence",
				slog.String("stop_id", stop.ID))
		}
	}
}

func parseCoordinate(raw string) (float64, error) {
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("coordinate %q is not finite", raw)
	}
	return v, nil
}

func addTrips(g *Graph, stopTimes []schedule.StopTime, logger *slog.Logger) {
	trips := make(map[string][]schedule.StopTime)
	var order []string
	for _, st := range stopTimes {
		if _, seen := trips[st.TripID]; !seen {
			order = append(order, st.TripID)
		}
		trips[st.TripID] = append(trips[st.TripID], st)
	}
	g.stats.Trips = len(order)

	for _, tripID := range order {
		stops := trips[tripID]
		sort.SliceStable(stops, func(i, j int) bool {
			return stops[i].Sequence < stops[j].Sequence
		})

		for i := 0; i+1 < len(stops); i++ {
			cur, next := stops[i], stops[i+1]
			if cur.Sequence == next.Sequence {
				logger.Warn("duplicate stop_sequence in trip, keeping file order",
					slog.String("trip_id", tripID),
					slog.Int("stop_sequence", cur.Sequence))
			}

			if !g.HasNode(cur.StopID) || !g.HasNode(next.StopID) {
				g.stats.DroppedEdges++
				continue
			}

			weight := (next.Arrival - cur.Departure).Minutes()
			if weight < 0 {
				g.stats.DroppedEdges++
				g.stats.NegativeEdges++
				logger.Warn("negative travel time, edge dropped",
					slog.String("trip_id", tripID),
					slog.String("from", cur.StopID),
					slog.String("to", next.StopID),
					slog.Float64("weight", weight))
				continue
			}

			g.addEdge(Edge{
				From:      cur.StopID,
				To:        next.StopID,
				TripID:    tripID,
				Weight:    weight,
				Departure: cur.Departure,
				Arrival:   next.Arrival,
			})
		}
	}
}
