// Package metrics exposes the process-wide Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PayloadRenormalized counts payload loads by whether the sampling gate
	// routed them back through the canonicalizing normalizer.
	PayloadRenormalized = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faultline_payload_renormalized_total",
		Help: "Payload loads partitioned by renormalization decision.",
	}, []string{"decision"})

	// LegacyFieldAccess counts reads of deprecated event accessors so their
	// remaining callers can be tracked down.
	LegacyFieldAccess = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faultline_legacy_field_access_total",
		Help: "Accesses to deprecated event fields, by field name.",
	}, []string{"field"})

	// NodeFetches counts blob store reads by outcome.
	NodeFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "faultline_node_fetches_total",
		Help: "Blob store payload fetches, by outcome.",
	}, []string{"outcome"})
)
