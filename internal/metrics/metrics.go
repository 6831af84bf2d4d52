package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector owns a private Prometheus registry. A nil *Collector is valid and
// records nothing, so components can be built without metrics in tests.
type Collector struct {
	reg *prometheus.Registry

	GraphNodes prometheus.Gauge
	GraphEdges prometheus.Gauge

	HTTPRequests        *prometheus.CounterVec // method, route, status
	HTTPRequestDuration *prometheus.HistogramVec

	RouteSearches      *prometheus.CounterVec // outcome label: found|no_route|not_found|error
	RouteSearchLatency prometheus.Histogram
	RoutesReturned     prometheus.Histogram
	PathSearches       *prometheus.CounterVec // result label: found|unreachable

	FuzzyLookups *prometheus.CounterVec // result label: hit|miss
	RateLimited  prometheus.Counter
}

func NewCollector() *Collector {
	reg := prometheus.NewRegistry()

	c := &Collector{
		reg: reg,
		GraphNodes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainmapper_graph_nodes",
			Help: "Number of stops in the transit graph.",
		}),
		GraphEdges: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "trainmapper_graph_edges",
			Help: "Number of trip edges in the transit graph.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainmapper_http_requests_total",
			Help: "HTTP requests served.",
		}, []string{"method", "route", "status"}),
		HTTPRequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "trainmapper_http_request_duration_seconds",
			Help:    "Duration of HTTP requests.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 2, 15),
		}, []string{"method", "route"}),
		RouteSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainmapper_route_searches_total",
			Help: "Route searches by outcome.",
		}, []string{"outcome"}),
		RouteSearchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainmapper_route_search_duration_seconds",
			Help:    "Time spent resolving stations and enumerating paths.",
			Buckets: prometheus.ExponentialBuckets(0.0001, 2, 16),
		}),
		RoutesReturned: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "trainmapper_routes_returned",
			Help:    "Number of itineraries returned per search.",
			Buckets: []float64{0, 1, 2, 4, 8, 16, 32, 64},
		}),
		PathSearches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainmapper_path_searches_total",
			Help: "Shortest path searches by result.",
		}, []string{"result"}),
		FuzzyLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "trainmapper_fuzzy_lookups_total",
			Help: "Registry fuzzy matches attempted after a prefix miss.",
		}, []string{"result"}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "trainmapper_rate_limited_total",
			Help: "Requests rejected by the rate limiter.",
		}),
	}

	reg.MustRegister(
		c.GraphNodes, c.GraphEdges,
		c.HTTPRequests, c.HTTPRequestDuration,
		c.RouteSearches, c.RouteSearchLatency, c.RoutesReturned, c.PathSearches,
		c.FuzzyLookups, c.RateLimited,
	)

	return c
}

func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.reg, promhttp.HandlerOpts{})
}

// Registry exposes the underlying registry, mainly for tests.
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.reg
}

func (c *Collector) SetGraphSize(nodes, edges int) {
	if c == nil {
		return
	}
	c.GraphNodes.Set(float64(nodes))
	c.GraphEdges.Set(float64(edges))
}

func (c *Collector) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	if c == nil {
		return
	}
	c.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	c.HTTPRequestDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (c *Collector) ObserveRouteSearch(outcome string, routes int, d time.Duration) {
	if c == nil {
		return
	}
	c.RouteSearches.WithLabelValues(outcome).Inc()
	c.RouteSearchLatency.Observe(d.Seconds())
	if outcome == "found" || outcome == "no_route" {
		c.RoutesReturned.Observe(float64(routes))
	}
}

func (c *Collector) PathSearch(found bool) {
	if c == nil {
		return
	}
	if found {
		c.PathSearches.WithLabelValues("found").Inc()
		return
	}
	c.PathSearches.WithLabelValues("unreachable").Inc()
}

func (c *Collector) FuzzyLookup(hit bool) {
	if c == nil {
		return
	}
	if hit {
		c.FuzzyLookups.WithLabelValues("hit").Inc()
		return
	}
	c.FuzzyLookups.WithLabelValues("miss").Inc()
}

func (c *Collector) RateLimitedInc() {
	if c == nil {
		return
	}
	c.RateLimited.Inc()
}
