// Package metrics collects and exposes Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector gathers the app's counters. Handlers and middleware record into
// it; Prometheus scrapes it through Handler.
type Collector struct {
	registry        *prometheus.Registry
	httpRequests    *prometheus.CounterVec
	postsCreated    prometheus.Counter
	commentsCreated prometheus.Counter
	followsCreated  prometheus.Counter
	cacheHits       prometheus.Counter
	cacheMisses     prometheus.Counter
}

// NewCollector creates a Collector and registers its metrics with reg.
// Passing nil creates a private registry.
func NewCollector(reg *prometheus.Registry) *Collector {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	c := &Collector{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "blog_http_requests_total",
			Help: "HTTP requests by method and status code.",
		}, []string{"method", "status"}),
		postsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_posts_created_total",
			Help: "Posts created.",
		}),
		commentsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_comments_created_total",
			Help: "Comments created.",
		}),
		followsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_follows_created_total",
			Help: "Follow relationships created.",
		}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_page_cache_hits_total",
			Help: "Index page cache hits.",
		}),
		cacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "blog_page_cache_misses_total",
			Help: "Index page cache misses.",
		}),
	}
	reg.MustRegister(
		c.httpRequests,
		c.postsCreated,
		c.commentsCreated,
		c.followsCreated,
		c.cacheHits,
		c.cacheMisses,
	)
	return c
}

// RecordRequest counts one handled HTTP request.
func (c *Collector) RecordRequest(method string, status int) {
	c.httpRequests.WithLabelValues(method, strconv.Itoa(status)).Inc()
}

// RecordPostCreated counts one created post.
func (c *Collector) RecordPostCreated() {
	c.postsCreated.Inc()
}

// RecordCommentCreated counts one created comment.
func (c *Collector) RecordCommentCreated() {
	c.commentsCreated.Inc()
}

// RecordFollowCreated counts one created follow.
func (c *Collector) RecordFollowCreated() {
	c.followsCreated.Inc()
}

// RecordCacheHit counts one page cache hit.
func (c *Collector) RecordCacheHit() {
	c.cacheHits.Inc()
}

// RecordCacheMiss counts one page cache miss.
func (c *Collector) RecordCacheMiss() {
	c.cacheMisses.Inc()
}

// Handler returns the HTTP handler Prometheus scrapes.
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// Handler returns the scrape handler for the collector's own registry.
func (c *Collector) Handler() http.Handler {
	return Handler(c.registry)
}
