package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Event store metrics
	EventsIngested = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pddash_events_ingested_total",
			Help: "Total events parsed from the source log and broadcast",
		},
	)
	MalformedLines = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pddash_malformed_lines_total",
			Help: "Total source log lines skipped because they were not valid JSON",
		},
	)
	CachedEvents = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pddash_cached_events",
			Help: "Number of events currently held in the replay cache",
		},
	)

	// Tailer metrics
	Truncations = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pddash_truncations_total",
			Help: "Times the source log was observed smaller than the tail cursor",
		},
	)
	PollErrors = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pddash_poll_errors_total",
			Help: "Transient I/O errors while polling the source log",
		},
	)
	TailOffset = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pddash_tail_offset_bytes",
			Help: "Current byte offset of the tail cursor",
		},
	)

	// Observer metrics
	Observers = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "pddash_observers",
			Help: "Number of connected observers",
		},
	)
	ObserversEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "pddash_observers_evicted_total",
			Help: "Observers dropped from fan-out because their queue was saturated",
		},
	)
	FramesSent = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "pddash_stream_frames_total",
			Help: "Frames written to observer streams",
		},
		[]string{"kind"},
	)
)
