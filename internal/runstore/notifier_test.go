package runstore

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

func TestValidateCallbackURL(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		wantErr bool
	}{
		{name: "https", url: "https://example.com/callback"},
		{name: "localhost", url: "http://localhost:8000/callback"},
		{name: "run_id template", url: "http://localhost:8000/runs/{run_id}/done"},
		{name: "ftp scheme", url: "ftp://example.com/callback", wantErr: true},
		{name: "missing host", url: "http:///callback", wantErr: true},
		{name: "relative", url: "/callback", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCallbackURL(tt.url)
			if tt.wantErr {
				if !errors.Is(err, ErrInvalidCallbackURL) {
					t.Fatalf("expected ErrInvalidCallbackURL, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
		})
	}
}

func testNotifier() *Notifier {
	n := NewNotifier(nil)
	n.baseDelay = time.Millisecond
	n.httpClient.Timeout = 2 * time.Second
	return n
}

func TestNotifierPostsPayload(t *testing.T) {
	type delivery struct {
		path, secret string
		payload      NotificationPayload
	}
	deliveries := make(chan delivery, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		d := delivery{path: r.URL.Path, secret: r.Header.Get(CallbackSecretHeader)}
		if err := json.NewDecoder(r.Body).Decode(&d.payload); err != nil {
			t.Errorf("decode payload: %v", err)
		}
		deliveries <- d
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	now := time.Now().UTC()
	rec := &Record{
		Run: models.Run{ID: "run-7", Status: models.RunStatusCompleted, CreatedAt: now, StartedAt: now, EndedAt: now},
		Input: models.RunInput{
			CallbackURL:    srv.URL + "/hooks/{run_id}",
			CallbackSecret: "s3cret",
		},
		Result: &models.RunResult{
			Outcome:    "converged",
			Cost:       4,
			Trajectory: []models.CostSample{{Step: 0, Cost: 5}},
		},
	}

	n := testNotifier()
	n.Notify(rec)
	n.Wait()

	var d delivery
	select {
	case d = <-deliveries:
	default:
		t.Fatal("no notification delivered")
	}
	got := d.payload
	if d.path != "/hooks/run-7" {
		t.Errorf("path = %q", d.path)
	}
	if d.secret != "s3cret" {
		t.Errorf("secret header = %q", d.secret)
	}
	if got.RunID != "run-7" || got.Status != models.RunStatusCompleted {
		t.Errorf("unexpected payload: %+v", got)
	}
	if got.Result == nil || got.Result.Cost != 4 {
		t.Fatalf("expected result in payload, got %+v", got.Result)
	}
	if len(got.Result.Trajectory) != 0 {
		t.Errorf("trajectory should be omitted")
	}
	if rec.Result.Trajectory == nil {
		t.Errorf("notify must not modify the record")
	}
}

func TestNotifierRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := testNotifier()
	n.Notify(&Record{
		Run:   models.Run{ID: "r", Status: models.RunStatusFailed},
		Input: models.RunInput{CallbackURL: srv.URL},
	})
	n.Wait()

	if c := calls.Load(); c != 3 {
		t.Errorf("expected 3 attempts, got %d", c)
	}
}

func TestNotifierGivesUp(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := testNotifier()
	n.Notify(&Record{
		Run:   models.Run{ID: "r", Status: models.RunStatusFailed},
		Input: models.RunInput{CallbackURL: srv.URL},
	})
	n.Wait()

	if c := calls.Load(); c != int32(n.maxRetries+1) {
		t.Errorf("expected %d attempts, got %d", n.maxRetries+1, c)
	}
}

func TestNotifierSkipsWithoutCallback(t *testing.T) {
	n := testNotifier()
	n.Notify(nil)
	n.Notify(&Record{Run: models.Run{ID: "r"}})
	n.Wait()
}
