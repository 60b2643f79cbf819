package netcheck

import (
	"context"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func TestCheckConnection(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	defer ln.Close()
	go func() {
		for {
			conn, err := ln.Accept()
			if err != nil {
				return
			}
			_ = conn.Close()
		}
	}()

	ok := New(Options{Target: ln.Addr().String()}).CheckConnection(context.Background())
	if !ok.Reachable || ok.Err != nil {
		t.Fatalf("expected reachable target, got %+v", ok)
	}

	addr := ln.Addr().String()
	_ = ln.Close()
	down := New(Options{Target: addr, Timeout: 200 * time.Millisecond}).CheckConnection(context.Background())
	if down.Reachable || down.Err == nil {
		t.Fatalf("expected unreachable target, got %+v", down)
	}
}

func TestMeasureLatencyRecordsDomainStats(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/missing" {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte("hello"))
	}))
	defer srv.Close()

	c := New(Options{})
	good := c.MeasureLatency(context.Background(), srv.URL+"/ok")
	if good.Err != nil || good.Status != http.StatusOK || good.Bytes != 5 {
		t.Fatalf("unexpected probe %+v", good)
	}
	bad := c.MeasureLatency(context.Background(), srv.URL+"/missing")
	if bad.Err == nil || bad.Status != http.StatusNotFound {
		t.Fatalf("expected failed probe, got %+v", bad)
	}

	stats := c.Stats()
	if len(stats) != 1 {
		t.Fatalf("expected one domain, got %+v", stats)
	}
	s := stats[0]
	if s.Requests != 2 || s.Errors != 1 || len(s.Latencies) != 1 {
		t.Fatalf("unexpected stats %+v", s)
	}
	if !strings.HasPrefix(c.StatsLines()[0], s.Domain+": requests=2 errors=1") {
		t.Fatalf("unexpected lines %q", c.StatsLines())
	}
}

func TestProbeAllBoundsConcurrency(t *testing.T) {
	var inFlight, peak atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		n := inFlight.Add(1)
		for {
			p := peak.Load()
			if n <= p || peak.CompareAndSwap(p, n) {
				break
			}
		}
		time.Sleep(20 * time.Millisecond)
		inFlight.Add(-1)
	}))
	defer srv.Close()

	urls := make([]string, 12)
	for i := range urls {
		urls[i] = srv.URL + "/" + string(rune('a'+i))
	}
	c := New(Options{Concurrency: 3})
	results := c.ProbeAll(context.Background(), urls)
	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] || r.Err != nil {
			t.Fatalf("result %d: %+v", i, r)
		}
	}
	if peak.Load() > 3 {
		t.Fatalf("concurrency limit exceeded: %d", peak.Load())
	}
}

func TestDomainStatsAvgLatency(t *testing.T) {
	if (DomainStats{}).AvgLatency() != 0 {
		t.Fatal("empty stats should average to zero")
	}
	s := DomainStats{Latencies: []time.Duration{time.Second, 3 * time.Second}}
	if s.AvgLatency() != 2*time.Second {
		t.Fatalf("AvgLatency() = %v", s.AvgLatency())
	}
}
