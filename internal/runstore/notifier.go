package runstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/logger"
	"github.com/GoSim-25-26J-441/tsp-anneal/pkg/models"
)

// CallbackSecretHeader carries the per-run callback secret.
const CallbackSecretHeader = "X-Anneal-Callback-Secret"

var ErrInvalidCallbackURL = errors.New("invalid callback url")

// NotificationPayload is the JSON body posted to a run's callback URL once
// the run reaches a terminal status. The trajectory is never included.
type NotificationPayload struct {
	RunID           string            `json:"run_id"`
	Status          models.RunStatus  `json:"status"`
	CreatedAtUnixMs int64             `json:"created_at_unix_ms"`
	StartedAtUnixMs int64             `json:"started_at_unix_ms,omitempty"`
	EndedAtUnixMs   int64             `json:"ended_at_unix_ms,omitempty"`
	Error           string            `json:"error,omitempty"`
	Result          *models.RunResult `json:"result,omitempty"`
	Timestamp       int64             `json:"timestamp"`
}

// Notifier posts terminal run records to client callbacks with retries.
type Notifier struct {
	httpClient *http.Client
	maxRetries int
	baseDelay  time.Duration
	logger     *slog.Logger
	wg         sync.WaitGroup
}

// NewNotifier creates a notifier with a 10s request timeout and three
// retries starting at one second.
func NewNotifier(l *slog.Logger) *Notifier {
	if l == nil {
		l = logger.Discard()
	}
	return &Notifier{
		httpClient: &http.Client{Timeout: 10 * time.Second},
		maxRetries: 3,
		baseDelay:  time.Second,
		logger:     l,
	}
}

// validateCallbackURL accepts absolute http and https URLs. The {run_id}
// placeholder is allowed anywhere in the path.
func validateCallbackURL(raw string) error {
	u, err := url.Parse(strings.ReplaceAll(raw, "{run_id}", "x"))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidCallbackURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: scheme must be http or https", ErrInvalidCallbackURL)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%w: missing host", ErrInvalidCallbackURL)
	}
	return nil
}

// Notify sends rec to its callback URL in the background. Records without
// a callback are ignored.
func (n *Notifier) Notify(rec *Record) {
	if rec == nil || rec.Input.CallbackURL == "" {
		return
	}

	target := strings.ReplaceAll(rec.Input.CallbackURL, "{run_id}", url.PathEscape(rec.Run.ID))
	payload := NotificationPayload{
		RunID:           rec.Run.ID,
		Status:          rec.Run.Status,
		CreatedAtUnixMs: unixMs(rec.Run.CreatedAt),
		StartedAtUnixMs: unixMs(rec.Run.StartedAt),
		EndedAtUnixMs:   unixMs(rec.Run.EndedAt),
		Error:           rec.Run.Error,
		Timestamp:       time.Now().UTC().UnixMilli(),
	}
	if rec.Result != nil {
		res := *rec.Result
		res.Trajectory = nil
		payload.Result = &res
	}

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()
		n.send(target, rec.Input.CallbackSecret, payload)
	}()
}

// Wait blocks until every pending notification has been delivered or given up.
func (n *Notifier) Wait() {
	n.wg.Wait()
}

func (n *Notifier) send(target, secret string, payload NotificationPayload) {
	log := n.logger.With("run_id", payload.RunID, "callback_url", target)

	body, err := json.Marshal(payload)
	if err != nil {
		log.Error("failed to marshal notification payload", "error", err)
		return
	}

	var lastErr error
	for attempt := 0; attempt <= n.maxRetries; attempt++ {
		if attempt > 0 {
			delay := n.baseDelay * time.Duration(1<<uint(attempt-1))
			log.Debug("retrying notification", "attempt", attempt, "delay", delay)
			time.Sleep(delay)
		}

		req, err := http.NewRequest(http.MethodPost, target, bytes.NewReader(body))
		if err != nil {
			lastErr = fmt.Errorf("create request: %w", err)
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("User-Agent", "tspanneal/1.0")
		if secret != "" {
			req.Header.Set(CallbackSecretHeader, secret)
		}

		resp, err := n.httpClient.Do(req)
		if err != nil {
			lastErr = fmt.Errorf("request failed: %w", err)
			log.Warn("notification attempt failed", "attempt", attempt+1, "error", err)
			continue
		}
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			log.Info("notification sent", "status", payload.Status, "status_code", resp.StatusCode)
			return
		}
		lastErr = fmt.Errorf("unexpected status code: %d", resp.StatusCode)
		log.Warn("notification returned non-2xx status",
			"status_code", resp.StatusCode,
			"response_body", string(respBody),
			"attempt", attempt+1,
		)
	}

	log.Error("failed to send notification after retries",
		"status", payload.Status,
		"max_retries", n.maxRetries,
		"last_error", lastErr,
	)
}

func unixMs(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.UnixMilli()
}
