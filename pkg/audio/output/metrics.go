// ABOUTME: Prometheus metrics for the output stream engine
// ABOUTME: Counters and gauges are safe to update from the audio callback thread
package output

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the engine's collectors. A nil *Metrics records nothing.
type Metrics struct {
	sessionsOpened    prometheus.Counter
	openFailures      prometheus.Counter
	buffersSubmitted  prometheus.Counter
	enqueueFailures   prometheus.Counter
	playStateFailures prometheus.Counter
	playing           prometheus.Gauge
	bufferBytes       prometheus.Gauge
}

// NewMetrics registers the engine collectors with reg
func NewMetrics(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		sessionsOpened: f.NewCounter(prometheus.CounterOpts{
			Name: "lowlat_output_sessions_opened_total",
			Help: "Total number of playback sessions opened",
		}),
		openFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lowlat_output_open_failures_total",
			Help: "Total number of failed stream opens",
		}),
		buffersSubmitted: f.NewCounter(prometheus.CounterOpts{
			Name: "lowlat_output_buffers_submitted_total",
			Help: "Total number of buffers submitted to the platform queue",
		}),
		enqueueFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lowlat_output_enqueue_failures_total",
			Help: "Total number of rejected buffer submissions",
		}),
		playStateFailures: f.NewCounter(prometheus.CounterOpts{
			Name: "lowlat_output_play_state_failures_total",
			Help: "Total number of failed play state transitions",
		}),
		playing: f.NewGauge(prometheus.GaugeOpts{
			Name: "lowlat_output_playing",
			Help: "1 while the stream is playing",
		}),
		bufferBytes: f.NewGauge(prometheus.GaugeOpts{
			Name: "lowlat_output_buffer_bytes",
			Help: "Size of the session's output buffer in bytes",
		}),
	}
}

func (m *Metrics) sessionOpened(bufferBytes int) {
	if m == nil {
		return
	}
	m.sessionsOpened.Inc()
	m.bufferBytes.Set(float64(bufferBytes))
}

func (m *Metrics) openFailed() {
	if m == nil {
		return
	}
	m.openFailures.Inc()
}

func (m *Metrics) bufferSubmitted() {
	if m == nil {
		return
	}
	m.buffersSubmitted.Inc()
}

func (m *Metrics) enqueueFailed() {
	if m == nil {
		return
	}
	m.enqueueFailures.Inc()
}

func (m *Metrics) playStateFailed() {
	if m == nil {
		return
	}
	m.playStateFailures.Inc()
}

func (m *Metrics) setPlaying(playing bool) {
	if m == nil {
		return
	}
	if playing {
		m.playing.Set(1)
	} else {
		m.playing.Set(0)
	}
}

func (m *Metrics) sessionClosed() {
	if m == nil {
		return
	}
	m.playing.Set(0)
	m.bufferBytes.Set(0)
}
