package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	scans = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealtrack",
		Name:      "scans_total",
		Help:      "Meal scans by slot and outcome.",
	}, []string{"meal", "outcome"})

	importRows = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealtrack",
		Name:      "import_rows_total",
		Help:      "Imported rows by result.",
	}, []string{"result"})

	importJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "mealtrack",
		Name:      "import_jobs_total",
		Help:      "Asynchronous import jobs by final status.",
	}, []string{"status"})
)

// ObserveScan counts one ledger outcome.
func ObserveScan(meal, outcome string) {
	scans.WithLabelValues(meal, outcome).Inc()
}

// ObserveImport counts the rows of one import run.
func ObserveImport(inserted, duplicates, invalid, failed int) {
	importRows.WithLabelValues("inserted").Add(float64(inserted))
	importRows.WithLabelValues("duplicate").Add(float64(duplicates))
	importRows.WithLabelValues("invalid").Add(float64(invalid))
	importRows.WithLabelValues("failed").Add(float64(failed))
}

// ObserveImportJob counts a finished import job.
func ObserveImportJob(status string) {
	importJobs.WithLabelValues(status).Inc()
}
