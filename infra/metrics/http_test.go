package metrics

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"testing"
	"time"
)

func TestPromServerExposesRunMetrics(t *testing.T) {
	sink, err := NewPromSink()
	if err != nil {
		t.Fatalf("new sink: %v", err)
	}
	if err := sink.RecordRun(sampleRun("lp", "Optimal")); err != nil {
		t.Fatalf("record: %v", err)
	}

	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- servePromMetrics(ctx, ln) }()

	url := fmt.Sprintf("http://%s/metrics", ln.Addr())
	var body string
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		resp, err := http.Get(url)
		if err == nil {
			raw, _ := io.ReadAll(resp.Body)
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				body = string(raw)
				break
			}
		}
		time.Sleep(50 * time.Millisecond)
	}
	if body == "" {
		t.Fatal("metrics endpoint never became ready")
	}
	if !strings.Contains(body, "schedule_runs_total") {
		t.Fatal("schedule_runs_total not exposed")
	}
	if !strings.Contains(body, "schedule_savings") {
		t.Fatal("schedule_savings not exposed")
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned %v after shutdown", err)
		}
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop on context cancel")
	}
}
