// Package metrics holds the Prometheus collectors exported by highlander.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "highlander"

// Registry holds every collector below plus the Go runtime collectors.
var Registry = prometheus.NewRegistry()

var (
	FetchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "fetch_requests_total",
		Help:      "Outbound catalog requests by response status.",
	}, []string{"status"})

	DownloadAttempts = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_download_attempts_total",
		Help:      "Bulk catalog download attempts by outcome.",
	}, []string{"outcome"})

	ParsedObjects = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "catalog_parsed_objects_total",
		Help:      "Catalog objects examined by the streaming parser.",
	}, []string{"result"})

	CatalogCards = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "catalog_cards",
		Help:      "Cards currently held in memory.",
	})

	Validations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deck_validations_total",
		Help:      "Deck legality checks by verdict.",
	}, []string{"legal"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		FetchRequests,
		DownloadAttempts,
		ParsedObjects,
		CatalogCards,
		Validations,
	)
}

// Handler serves the registry in the Prometheus exposition format
func Handler() http.Handler {
	return promhttp.HandlerFor(Registry, promhttp.HandlerOpts{})
}
