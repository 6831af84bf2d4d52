package graph

import (
	"container/heap"
	"math"
)

// WeightFunc returns the cost of traversing an edge. Negative or NaN costs
// make the edge impassable.
type WeightFunc func(*Edge) float64

// ByMinutes weighs an edge by its scheduled travel time.
func ByMinutes(e *Edge) float64 {
	return e.Weight
}

// Path is the ordered list of edges from an origin to a destination. Each
// edge keeps the trip it belongs to.
type Path []*Edge

// Stops returns the stop ids visited by the path, origin first.
func (p Path) Stops() []string {
	if len(p) == 0 {
		return nil
	}
	stops := make([]string, 0, len(p)+1)
	stops = append(stops, p[0].From)
	for _, e := range p {
		stops = append(stops, e.To)
	}
	return stops
}

// Minutes sums the edge weights of the path.
func (p Path) Minutes() float64 {
	var total float64
	for _, e := range p {
		total += e.Weight
	}
	return total
}

type queueItem struct {
	node string
	dist float64
	seq  int
}

// queue is a min-heap on distance; seq breaks ties in push order.
type queue []queueItem

func (q queue) Len() int { return len(q) }

func (q queue) Less(i, j int) bool {
	if q[i].dist != q[j].dist {
		return q[i].dist < q[j].dist
	}
	return q[i].seq < q[j].seq
}

func (q queue) Swap(i, j int) { q[i], q[j] = q[j], q[i] }

func (q *queue) Push(x any) { *q = append(*q, x.(queueItem)) }

func (q *queue) Pop() any {
	old := *q
	n := len(old)
	item := old[n-1]
	*q = old[:n-1]
	return item
}

// ShortestPath runs Dijkstra from one stop to another. It reports false when
// either stop is not in the graph or to cannot be reached from from. A path
// from a stop to itself is empty.
//
// The search is deterministic: of several equal-cost edges the first one
// inserted into the graph wins.
func ShortestPath(g *Graph, from, to string, weight WeightFunc) (Path, bool) {
	if !g.HasNode(from) || !g.HasNode(to) {
		return nil, false
	}
	if from == to {
		return Path{}, true
	}
	if weight == nil {
		weight = ByMinutes
	}

	dist := map[string]float64{from: 0}
	prev := make(map[string]*Edge)
	done := make(map[string]bool)

	seq := 0
	pq := &queue{{node: from, dist: 0, seq: seq}}

	for pq.Len() > 0 {
		item := heap.Pop(pq).(queueItem)
		if done[item.node] {
			continue
		}
		done[item.node] = true
		if item.node == to {
			break
		}

		for _, e := range g.adjacency[item.node] {
			if done[e.To] {
				continue
			}
			w := weight(e)
			if w < 0 || math.IsNaN(w) {
				continue
			}
			nd := item.dist + w
			if current, seen := dist[e.To]; seen && nd >= current {
				continue
			}
			dist[e.To] = nd
			prev[e.To] = e
			seq++
			heap.Push(pq, queueItem{node: e.To, dist: nd, seq: seq})
		}
	}

	if !done[to] {
		return nil, false
	}

	var path Path
	for node := to; node != from; {
		e := prev[node]
		path = append(path, e)
		node = e.From
	}
	for i, j := 0, len(path)-1; i < j; i, j = i+1, j-1 {
		path[i], path[j] = path[j], path[i]
	}
	return path, true
}
