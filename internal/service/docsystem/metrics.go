package docsystem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	storeOpsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_store_operations_total",
		Help: "Item store calls by operation and outcome.",
	}, []string{"op", "status"})

	storeOpDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "explorer_store_operation_duration_seconds",
		Help:    "Item store call latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"op"})

	uploadFilesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_upload_files_total",
		Help: "Uploaded files by outcome.",
	}, []string{"status"})

	uploadBytesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "explorer_upload_bytes_total",
		Help: "Bytes written to the content store by uploads.",
	})

	archivesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_archives_total",
		Help: "Folder archive exports by outcome.",
	}, []string{"status"})

	archiveEntriesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_archive_entries_total",
		Help: "Files written to or skipped from folder archives.",
	}, []string{"result"})

	pastedItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "explorer_pasted_items_total",
		Help: "Items created by paste, by type.",
	}, []string{"type"})
)
