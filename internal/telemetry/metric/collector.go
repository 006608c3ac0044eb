package metric

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// FeedStatus is a point-in-time view of one feed.
type FeedStatus struct {
	Kind      string `json:"kind"`
	Items     int    `json:"items"`
	PageSize  int    `json:"page_size"`
	HasMore   bool   `json:"has_more"`
	IsLoading bool   `json:"is_loading"`
}

// FeedSource reports the current status of a feed.
type FeedSource interface {
	Status() FeedStatus
}

// Collector reports feed state gauges at scrape time.
type Collector struct {
	mu      sync.RWMutex
	sources []FeedSource

	items    *prometheus.Desc
	pageSize *prometheus.Desc
	hasMore  *prometheus.Desc
	loading  *prometheus.Desc
}

// NewCollector creates a collector with no feeds attached.
func NewCollector() *Collector {
	labels := []string{"feed"}
	return &Collector{
		items: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "feed", "items"),
			"Items currently held by the feed.", labels, nil),
		pageSize: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "feed", "page_size"),
			"Current page size of the feed.", labels, nil),
		hasMore: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "feed", "has_more"),
			"1 if the feed can load another page.", labels, nil),
		loading: prometheus.NewDesc(
			prometheus.BuildFQName(namespace, "feed", "loading"),
			"1 while a fetch is outstanding.", labels, nil),
	}
}

// Add attaches feeds to the collector.
func (c *Collector) Add(sources ...FeedSource) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sources = append(c.sources, sources...)
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.items
	ch <- c.pageSize
	ch <- c.hasMore
	ch <- c.loading
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, src := range c.sources {
		st := src.Status()
		ch <- prometheus.MustNewConstMetric(c.items, prometheus.GaugeValue, float64(st.Items), st.Kind)
		ch <- prometheus.MustNewConstMetric(c.pageSize, prometheus.GaugeValue, float64(st.PageSize), st.Kind)
		ch <- prometheus.MustNewConstMetric(c.hasMore, prometheus.GaugeValue, boolToFloat(st.HasMore), st.Kind)
		ch <- prometheus.MustNewConstMetric(c.loading, prometheus.GaugeValue, boolToFloat(st.IsLoading), st.Kind)
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
