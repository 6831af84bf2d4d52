package planner

import (
	"fmt"
	"time"

	"trainmapper.org/internal/graph"
	"trainmapper.org/internal/models"
	"trainmapper.org/internal/schedule"
)

// FormatDuration renders minutes as "2h 05min", or "45min" below an hour.
// Fractions of a minute are truncated.
func FormatDuration(minutes float64) string {
	if minutes >= 60 {
		total := int(minutes)
		return fmt.Sprintf("%dh %02dmin", total/60, total%60)
	}
	return fmt.Sprintf("%dmin", int(minutes))
}

type leg struct {
	tripID    string
	stops     []string
	departure time.Duration
	arrival   time.Duration
	minutes   float64
}

// BuildRoute turns a path into an itinerary. Consecutive edges on the same
// trip are merged into one segment; a change of trip always starts a new one.
func BuildRoute(g *graph.Graph, path graph.Path) models.Route {
	var legs []*leg
	var total float64
	for _, e := range path {
		total += e.Weight

		last := len(legs) - 1
		if last >= 0 && legs[last].tripID == e.TripID {
			legs[last].stops = append(legs[last].stops, e.To)
			legs[last].arrival = e.Arrival
			legs[last].minutes += e.Weight
			continue
		}
		legs = append(legs, &leg{
			tripID:    e.TripID,
			stops:     []string{e.From, e.To},
			departure: e.Departure,
			arrival:   e.Arrival,
			minutes:   e.Weight,
		})
	}

	route := models.Route{
		TotalDurationFormatted: FormatDuration(total),
		TotalDuration:          total,
		Segments:               make([]models.Segment, 0, len(legs)),
	}
	if stops := path.Stops(); len(stops) > 0 {
		route.From = stopRef(g, stops[0]).Name
		route.To = stopRef(g, stops[len(stops)-1]).Name
	}

	for _, l := range legs {
		segment := models.Segment{
			Stops:     make([]models.StopRef, 0, len(l.stops)),
			Departure: schedule.FormatClock(l.departure),
			Arrival:   schedule.FormatClock(l.arrival),
			Duration:  FormatDuration(l.minutes),
			TripID:    l.tripID,
		}
		for _, id := range l.stops {
			segment.Stops = append(segment.Stops, stopRef(g, id))
		}
		route.Segments = append(route.Segments, segment)
	}
	return route
}

func stopRef(g *graph.Graph, id string) models.StopRef {
	n, ok := g.Node(id)
	if !ok {
		return models.StopRef{ID: id}
	}
	return models.NewStopRef(n.ID, n.Name, n.Lat, n.Lon)
}
