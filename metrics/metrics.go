// Copyright (C) 2020-2025, Lux Industries Inc. All rights reserved.
// See the file LICENSE for licensing terms.

package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics wraps the named counters and gauges the routing core reports
// under a single prometheus.Registerer, so a Node only has to construct
// one of these at startup.
type Metrics struct {
	Registry prometheus.Registerer

	MessagesAccumulated prometheus.Counter
	SharesRejected      prometheus.Counter
	CandidatesApproved  prometheus.Counter
	CandidatesPurged    prometheus.Counter
	ElderRotations      prometheus.Counter
	SectionSplits       prometheus.Counter
	SectionMerges       prometheus.Counter
	BouncesSent         prometheus.Counter
	DuplicatesDropped   prometheus.Counter
	InvalidProofDropped prometheus.Counter
	SectionMemberCount  prometheus.Gauge
}

// NewMetrics registers every named metric against reg and returns the
// bundle. A failed registration (e.g. a name collision in tests that
// construct more than one Metrics against the same registry) is reported
// by the first error encountered.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Registry:            reg,
		MessagesAccumulated: prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_messages_accumulated_total", Help: "Messages whose signature shares reached quorum and were combined."}),
		SharesRejected:      prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_shares_rejected_total", Help: "Signature shares rejected as duplicate or from an invalid signer."}),
		CandidatesApproved:  prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_candidates_approved_total", Help: "Candidates that completed resource-proof and were voted online."}),
		CandidatesPurged:    prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_candidates_purged_total", Help: "Candidates purged after a resource-proof timeout."}),
		ElderRotations:      prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_elder_rotations_total", Help: "Completed elder-set changes."}),
		SectionSplits:       prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_section_splits_total", Help: "Completed section splits."}),
		SectionMerges:       prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_section_merges_total", Help: "Completed section merges."}),
		BouncesSent:         prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_bounces_sent_total", Help: "Bounce replies sent for untrusted or unroutable messages."}),
		DuplicatesDropped:   prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_duplicates_dropped_total", Help: "Inbound messages dropped by the duplicate filter."}),
		InvalidProofDropped: prometheus.NewCounter(prometheus.CounterOpts{Name: "mesh_invalid_proof_dropped_total", Help: "Inbound messages dropped for failing proof-chain verification."}),
		SectionMemberCount:  prometheus.NewGauge(prometheus.GaugeOpts{Name: "mesh_section_member_count", Help: "Current number of members in our section."}),
	}

	collectors := []prometheus.Collector{
		m.MessagesAccumulated, m.SharesRejected, m.CandidatesApproved, m.CandidatesPurged,
		m.ElderRotations, m.SectionSplits, m.SectionMerges, m.BouncesSent,
		m.DuplicatesDropped, m.InvalidProofDropped, m.SectionMemberCount,
	}
	for _, c := range collectors {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Register registers an additional prometheus collector against m's
// registry, for components that need a metric not named above.
func (m *Metrics) Register(collector prometheus.Collector) error {
	return m.Registry.Register(collector)
}
