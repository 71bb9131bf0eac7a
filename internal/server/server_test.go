package server

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

func TestServerServeAndShutdown(t *testing.T) {
	ex, _ := newTestExecutor(t)
	srv := New(ex, Options{Gatherer: prometheus.NewRegistry()})

	httpLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	grpcLis, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatalf("listen: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.serve(ctx, httpLis, grpcLis) }()

	url := fmt.Sprintf("http://%s/healthz", httpLis.Addr())
	var resp *http.Response
	for i := 0; i < 100; i++ {
		resp, err = http.Get(url)
		if err == nil {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if err != nil {
		t.Fatalf("GET /healthz: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("serve returned error: %v", err)
		}
	case <-time.After(ShutdownTimeout + time.Second):
		t.Fatalf("server did not shut down")
	}
}

func TestServerServeBadAddress(t *testing.T) {
	ex, _ := newTestExecutor(t)
	srv := New(ex, Options{HTTPAddr: "256.0.0.1:bad", GRPCAddr: "127.0.0.1:0"})
	if err := srv.Serve(context.Background()); err == nil {
		t.Fatalf("expected listen error")
	}
}
