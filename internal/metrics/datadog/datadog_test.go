package datadog

import (
	"errors"
	"net"
	"reflect"
	"strings"
	"testing"
	"time"

	"datalake/internal/metrics"

	"github.com/DataDog/datadog-go/v5/statsd"
)

func TestNewBackend_RequiresAddr(t *testing.T) {
	t.Parallel()

	if _, err := NewBackend(Config{}); err == nil {
		t.Fatalf("NewBackend(empty) error = nil, want error")
	}
}

func TestLabelsToTags(t *testing.T) {
	t.Parallel()

	got := labelsToTags(metrics.Labels{"table": "songs", "step": "write", "job": ""})
	want := []string{"step:write", "table:songs"}
	if !reflect.DeepEqual(got, want) {
		t.Fatalf("labelsToTags() = %v, want %v", got, want)
	}
	if labelsToTags(nil) != nil {
		t.Fatalf("labelsToTags(nil) != nil")
	}
}

func TestBackend_SendsOverUDP(t *testing.T) {
	t.Parallel()

	conn, err := net.ListenPacket("udp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("ListenPacket() error = %v", err)
	}
	defer conn.Close()

	b, err := NewBackend(Config{
		Addr:       conn.LocalAddr().String(),
		Namespace:  "datalake.",
		GlobalTags: []string{"env:test"},
		Options:    []statsd.Option{statsd.WithoutClientSideAggregation(), statsd.WithoutTelemetry()},
	})
	if err != nil {
		t.Fatalf("NewBackend() error = %v", err)
	}

	b.IncCounter(metrics.RowsTotal, 12, metrics.Labels{"table": "artists", "kind": "written"})
	if err := b.Flush(); err != nil {
		t.Fatalf("Flush() error = %v", err)
	}

	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buf := make([]byte, 4096)
	n, _, err := conn.ReadFrom(buf)
	if err != nil {
		t.Fatalf("ReadFrom() error = %v", err)
	}
	got := string(buf[:n])
	for _, want := range []string{"datalake." + metrics.RowsTotal + ":12|c", "env:test", "table:artists"} {
		if !strings.Contains(got, want) {
			t.Fatalf("packet %q missing %q", got, want)
		}
	}
}

type failingClient struct {
	statsd.ClientInterface
	calls int
}

func (f *failingClient) Count(string, int64, []string, float64) error {
	f.calls++
	return errors.New("buffer full")
}

func (f *failingClient) Histogram(string, float64, []string, float64) error {
	f.calls++
	return errors.New("buffer full")
}

func TestBackend_CountsDroppedMetrics(t *testing.T) {
	t.Parallel()

	fc := &failingClient{}
	b := &Backend{client: fc}
	b.IncCounter("datalake_rows_total", 3, metrics.Labels{"table": "songs"})
	b.ObserveHistogram("datalake_step_duration_seconds", 0.5, nil)
	b.IncCounter("datalake_rows_total", 1, nil)

	if fc.calls != 3 {
		t.Fatalf("client calls = %d, want 3", fc.calls)
	}
	if got := b.Dropped(); got != 3 {
		t.Fatalf("Dropped() = %d, want 3", got)
	}
}
