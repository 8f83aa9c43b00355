package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gin-gonic/gin"
)

var (
	advanceTotal            atomic.Uint64
	advanceFailedTotal      atomic.Uint64
	questionGeneratedTotal  atomic.Uint64
	synthesisGeneratedTotal atomic.Uint64
	chatTurnTotal           atomic.Uint64

	completionDuration = newHistogram([]float64{100, 250, 500, 1000, 2000, 5000, 10000, 30000, 60000, 120000})
)

// IncAdvance increments the interview advance counter.
func IncAdvance() {
	advanceTotal.Add(1)
}

// IncAdvanceFailed increments the failed advance counter.
func IncAdvanceFailed() {
	advanceFailedTotal.Add(1)
}

// IncQuestionGenerated increments the generated question counter.
func IncQuestionGenerated() {
	questionGeneratedTotal.Add(1)
}

// IncSynthesisGenerated increments the generated synthesis counter.
func IncSynthesisGenerated() {
	synthesisGeneratedTotal.Add(1)
}

// IncChatTurn increments the chat turn counter.
func IncChatTurn() {
	chatTurnTotal.Add(1)
}

// ObserveCompletionDurationMs records one AI completion duration in
// milliseconds.
func ObserveCompletionDurationMs(value float64) {
	if value < 0 {
		value = 0
	}
	completionDuration.Observe(value)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "quali_advance_total", "Total interview advance calls", advanceTotal.Load())
	writeCounter(&buf, "quali_advance_failed_total", "Total failed interview advance calls", advanceFailedTotal.Load())
	writeCounter(&buf, "quali_question_generated_total", "Total interview questions generated", questionGeneratedTotal.Load())
	writeCounter(&buf, "quali_synthesis_generated_total", "Total experience syntheses generated", synthesisGeneratedTotal.Load())
	writeCounter(&buf, "quali_chat_turn_total", "Total chat turns completed", chatTurnTotal.Load())
	writeHistogram(&buf, "quali_completion_duration_ms", "AI completion duration in milliseconds", completionDuration.Snapshot())
	return buf.String()
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			break
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
	return out
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}

// NowMillis returns current time in milliseconds, useful for callers without time utilities.
func NowMillis() float64 {
	return float64(time.Now().UnixNano()) / float64(time.Millisecond)
}
