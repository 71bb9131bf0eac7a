package server

import (
	"context"
	"net"
	"net/http"
	"testing"

	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

func TestNewCreateLimiter(t *testing.T) {
	if l := NewCreateLimiter(0, 10); l != nil {
		t.Fatalf("expected nil limiter for zero rate, got %v", l)
	}
	l := NewCreateLimiter(2, 0)
	if l == nil {
		t.Fatal("expected limiter")
	}
	if l.Burst() != 1 {
		t.Errorf("burst = %d, want 1", l.Burst())
	}
}

func TestHTTPCreateRateLimited(t *testing.T) {
	ex, _ := newTestExecutor(t)
	// a rate this low refills nothing within the test
	h := NewHTTPServer(ex, nil, nil, WithCreateLimiter(NewCreateLimiter(0.001, 2))).Handler()

	body := CreateRunRequest{Input: models.RunInput{InstanceYAML: squareYAML}}
	for i := 0; i < 2; i++ {
		if rr := doJSON(t, h, http.MethodPost, "/v1/runs", body); rr.Code != http.StatusCreated {
			t.Fatalf("request %d: status %d, body %s", i, rr.Code, rr.Body.String())
		}
	}
	if rr := doJSON(t, h, http.MethodPost, "/v1/runs", body); rr.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", rr.Code)
	}
	// reads are not limited
	if rr := doJSON(t, h, http.MethodGet, "/v1/runs", nil); rr.Code != http.StatusOK {
		t.Fatalf("list: status %d", rr.Code)
	}
}

func TestGRPCCreateRateLimited(t *testing.T) {
	ex, _ := newTestExecutor(t)
	gs, _ := NewGRPC(ex, nil, grpc.ChainUnaryInterceptor(createLimitInterceptor(NewCreateLimiter(0.001, 1))))

	lis := bufconn.Listen(1 << 20)
	go func() {
		_ = gs.Serve(lis)
	}()
	t.Cleanup(gs.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	client := NewAnnealClient(conn)

	ctx := context.Background()
	req := mustStruct(t, map[string]any{"instance_yaml": squareYAML})
	if _, err := client.CreateRun(ctx, req); err != nil {
		t.Fatalf("first CreateRun: %v", err)
	}
	_, err = client.CreateRun(ctx, req)
	if status.Code(err) != codes.ResourceExhausted {
		t.Fatalf("expected ResourceExhausted, got %v", err)
	}
	if _, err := client.ListRuns(ctx, mustStruct(t, map[string]any{})); err != nil {
		t.Fatalf("ListRuns should not be limited: %v", err)
	}
}
