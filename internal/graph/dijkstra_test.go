package graph

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"trainmapper.org/internal/logging"
	"trainmapper.org/internal/schedule"
)

func TestShortestPathFollowsTrip(t *testing.T) {
	g := Build(abcData(t), logging.Discard())

	path, ok := ShortestPath(g, "A", "C", ByMinutes)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, path.Stops())
	assert.Equal(t, 18.0, path.Minutes())
	for _, e := range path {
		assert.Equal(t, "T1", e.TripID)
	}
}

func TestShortestPathPicksCheapestParallelEdge(t *testing.T) {
	data := abcData(t)
	data.StopTimes = append(data.StopTimes,
		stopTime(t, "T2", "A", 1, "11:00:00", "11:00:00"),
		stopTime(t, "T2", "B", 2, "11:04:00", "11:04:00"),
	)
	g := Build(data, logging.Discard())

	path, ok := ShortestPath(g, "A", "C", ByMinutes)
	require.True(t, ok)
	require.Len(t, path, 2)
	assert.Equal(t, "T2", path[0].TripID)
	assert.Equal(t, "T1", path[1].TripID)
	assert.Equal(t, 17.0, path.Minutes())
}

func TestShortestPathTieKeepsFirstEdge(t *testing.T) {
	data := abcData(t)
	data.StopTimes = append(data.StopTimes,
		stopTime(t, "T2", "A", 1, "11:00:00", "11:00:00"),
		stopTime(t, "T2", "B", 2, "11:05:00", "11:05:00"),
	)
	g := Build(data, logging.Discard())

	for i := 0; i < 10; i++ {
		path, ok := ShortestPath(g, "A", "B", ByMinutes)
		require.True(t, ok)
		require.Len(t, path, 1)
		assert.Equal(t, "T1", path[0].TripID)
	}
}

func TestShortestPathUnreachable(t *testing.T) {
	g := Build(abcData(t), logging.Discard())

	_, ok := ShortestPath(g, "C", "A", ByMinutes)
	assert.False(t, ok)

	_, ok = ShortestPath(g, "A", "missing", ByMinutes)
	assert.False(t, ok)

	_, ok = ShortestPath(g, "missing", "A", ByMinutes)
	assert.False(t, ok)
}

func TestShortestPathSameStop(t *testing.T) {
	g := Build(abcData(t), logging.Discard())

	path, ok := ShortestPath(g, "B", "B", nil)
	require.True(t, ok)
	assert.Empty(t, path)
	assert.Nil(t, path.Stops())
}

func TestShortestPathCustomWeight(t *testing.T) {
	data := &schedule.Data{
		Stops: []schedule.Stop{
			{ID: "A", Name: "A", Lat: "0", Lon: "0"},
			{ID: "B", Name: "B", Lat: "0", Lon: "1"},
			{ID: "C", Name: "C", Lat: "1", Lon: "1"},
		},
		StopTimes: []schedule.StopTime{
			stopTime(t, "DIRECT", "A", 1, "08:00:00", "08:00:00"),
			stopTime(t, "DIRECT", "C", 2, "09:00:00", "09:00:00"),
			stopTime(t, "HOP1", "A", 1, "08:00:00", "08:00:00"),
			stopTime(t, "HOP1", "B", 2, "08:10:00", "08:10:00"),
			stopTime(t, "HOP2", "B", 1, "08:20:00", "08:20:00"),
			stopTime(t, "HOP2", "C", 2, "08:30:00", "08:30:00"),
		},
	}
	g := Build(data, logging.Discard())

	fastest, ok := ShortestPath(g, "A", "C", ByMinutes)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "B", "C"}, fastest.Stops())

	fewestHops := func(*Edge) float64 { return 1 }
	direct, ok := ShortestPath(g, "A", "C", fewestHops)
	require.True(t, ok)
	assert.Equal(t, []string{"A", "C"}, direct.Stops())
	assert.Equal(t, "DIRECT", direct[0].TripID)

	blocked := func(e *Edge) float64 {
		if e.TripID == "HOP2" {
			return -1
		}
		return e.Weight
	}
	detour, ok := ShortestPath(g, "A", "C", blocked)
	require.True(t, ok)
	assert.Equal(t, "DIRECT", detour[0].TripID)
}
