// Package schedule reads the static timetable (stops and stop times) that the
// transit graph is built from.
package schedule

import "time"

// Stop corresponds to a single row in stops.txt. Coordinates are kept as the
// raw strings from the file: a stop whose coordinates do not parse is still a
// valid record, it just never makes it into the graph.
type Stop struct {
	ID   string
	Name string
	Lat  string
	Lon  string
}

// StopTime corresponds to a single row in stop_times.txt. Arrival and
// Departure are offsets from local midnight and may exceed 24h.
type StopTime struct {
	TripID    string
	StopID    string
	Sequence  int
	Arrival   time.Duration
	Departure time.Duration
}

// Data is the parsed content of one schedule source.
type Data struct {
	Stops     []Stop
	StopTimes []StopTime
}

// TripCount returns the number of distinct trips referenced by StopTimes.
func (d *Data) TripCount() int {
	seen := make(map[string]struct{})
	for _, st := range d.StopTimes {
		seen[st.TripID] = struct{}{}
	}
	return len(seen)
}
