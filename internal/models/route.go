package models

// RouteSearchResult is the answer to a route query: the stations both names
// resolved to, and one itinerary per reachable origin/destination pair.
type RouteSearchResult struct {
	StartStations []string `json:"start_stations"`
	EndStations   []string `json:"end_stations"`
	Routes        []Route  `json:"routes"`
}

// Route is one itinerary. TotalDuration is in minutes.
type Route struct {
	From                   string    `json:"from"`
	To                     string    `json:"to"`
	TotalDurationFormatted string    `json:"total_duration_formatted"`
	TotalDuration          float64   `json:"total_duration"`
	Segments               []Segment `json:"segments"`
}

// Segment is a leg travelled on a single trip. Departure and Arrival are
// schedule clock times ("HH:MM:SS", hours may exceed 23).
type Segment struct {
	Stops     []StopRef `json:"stops"`
	Departure string    `json:"departure"`
	Arrival   string    `json:"arrival"`
	Duration  string    `json:"duration"`
	TripID    string    `json:"trip_id"`
}

type StopRef struct {
	Name string  `json:"name"`
	ID   string  `json:"id"`
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
}

func NewStopRef(id, name string, lat, lon float64) StopRef {
	return StopRef{
		Name: name,
		ID:   id,
		Lat:  lat,
		Lon:  lon,
	}
}

// StationSearchResult lists the stations a single place name resolved to.
type StationSearchResult struct {
	Query    string    `json:"query"`
	Stations []StopRef `json:"stations"`
}

// RouteRequestResult answers a route request made of already extracted
// departure and arrival names.
type RouteRequestResult struct {
	Departure string             `json:"departure"`
	Arrival   string             `json:"arrival"`
	TripInfo  *RouteSearchResult `json:"trip_info"`
}
