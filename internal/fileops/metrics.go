// SPDX-License-Identifier: MIT
// Copyright (c) 2025 Vladyslav Kazantsev

package fileops

import "github.com/prometheus/client_golang/prometheus"

// Metrics counts file transfers.
type Metrics struct {
	Files *prometheus.CounterVec
	Chars prometheus.Counter
}

// NewMetrics creates the transfer counters and registers them with reg when
// it is not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Files: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "markbuild_files_transferred_total",
				Help: "Files copied or moved, by operation and transfer mode.",
			},
			[]string{"op", "mode"},
		),
		Chars: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "markbuild_chars_filtered_total",
			Help: "Characters written through filter chains.",
		}),
	}
	if reg != nil {
		reg.MustRegister(m.Files, m.Chars)
	}
	return m
}

func (m *Metrics) transferred(op, mode string) {
	if m != nil {
		m.Files.WithLabelValues(op, mode).Inc()
	}
}

func (m *Metrics) filtered(n int) {
	if m != nil && n > 0 {
		m.Chars.Add(float64(n))
	}
}
