// Package graph holds the transit graph built from a schedule: one node per
// stop with usable coordinates and one directed edge per consecutive pair of
// stops served by a trip.
//
// A Graph is immutable once Build returns and may be shared by any number of
// goroutines without locking.
package graph

import "time"

// Node is a stop that made it into the graph.
type Node struct {
	ID   string
	Name string
	Lat  float64
	Lon  float64
}

// Edge is a single hop of a trip. Weight is the travel time in minutes from
// the departure at From to the arrival at To. Departure and Arrival are the
// raw schedule offsets from midnight and may exceed 24h.
type Edge struct {
	From      string
	To        string
	TripID    string
	Weight    float64
	Departure time.Duration
	Arrival   time.Duration
}

// BuildStats counts what happened while building a graph.
type BuildStats struct {
	Stops          int
	SkippedStops   int
	DuplicateStops int
	Trips          int
	Edges          int
	DroppedEdges   int
	NegativeEdges  int
}

type edgeKey struct {
	from, to, trip string
}

// Graph is a directed multigraph: edges between the same pair of stops are
// kept apart when they belong to different trips.
type Graph struct {
	nodes     map[string]*Node
	order     []string
	adjacency map[string][]*Edge
	index     map[edgeKey]*Edge
	edgeCount int
	stats     BuildStats
}

func newGraph() *Graph {
	return &Graph{
		nodes:     make(map[string]*Node),
		adjacency: make(map[string][]*Edge),
		index:     make(map[edgeKey]*Edge),
	}
}

func (g *Graph) addNode(n Node) bool {
	if _, exists := g.nodes[n.ID]; exists {
		return false
	}
	g.nodes[n.ID] = &n
	g.order = append(g.order, n.ID)
	return true
}

// addEdge stores e, replacing the attributes of an existing edge with the
// same (from, to, trip) key.
func (g *Graph) addEdge(e Edge) {
	key := edgeKey{e.From, e.To, e.TripID}
	if existing, ok := g.index[key]; ok {
		*existing = e
		return
	}
	edge := &e
	g.index[key] = edge
	g.adjacency[e.From] = append(g.adjacency[e.From], edge)
	g.edgeCount++
}

// Node returns the node with the given stop id.
func (g *Graph) Node(id string) (*Node, bool) {
	n, ok := g.nodes[id]
	return n, ok
}

// HasNode reports whether id is a node of the graph.
func (g *Graph) HasNode(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Nodes returns every node in the order the stops were read.
func (g *Graph) Nodes() []*Node {
	nodes := make([]*Node, 0, len(g.order))
	for _, id := range g.order {
		nodes = append(nodes, g.nodes[id])
	}
	return nodes
}

// Edges returns the outgoing edges of from in insertion order.
func (g *Graph) Edges(from string) []*Edge {
	edges := g.adjacency[from]
	out := make([]*Edge, len(edges))
	copy(out, edges)
	return out
}

// EdgesBetween returns every edge from one stop to another, one per trip.
func (g *Graph) EdgesBetween(from, to string) []*Edge {
	var out []*Edge
	for _, e := range g.adjacency[from] {
		if e.To == to {
			out = append(out, e)
		}
	}
	return out
}

// NodeCount returns the number of stops in the graph.
func (g *Graph) NodeCount() int {
	return len(g.nodes)
}

// EdgeCount returns the number of edges, parallel edges included.
func (g *Graph) EdgeCount() int {
	return g.edgeCount
}

// Stats returns the counters collected by Build.
func (g *Graph) Stats() BuildStats {
	return g.stats
}
