package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	FilesScanned = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebench_files_scanned_total",
			Help: "Response files read by the collector",
		},
		[]string{"directory"},
	)

	FilesSkipped = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebench_files_skipped_total",
			Help: "Response files skipped because they could not be read or decoded",
		},
		[]string{"directory"},
	)

	VerdictsFound = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebench_verdicts_found_total",
			Help: "Verdicts extracted and appended to the flat log",
		},
		[]string{"directory"},
	)

	GroupsWritten = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "gradebench_groups_written_total",
			Help: "Group sections written to grouped reports",
		},
	)

	ProviderCost = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "gradebench_provider_cost_dollars_total",
			Help: "Estimated provider spend",
		},
		[]string{"provider", "model"},
	)
)
