package monitoring

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/trip-export/internal/config"
	"github.com/sells-group/trip-export/internal/resilience"
)

// AlertType identifies the kind of alert.
type AlertType string

const (
	AlertExportFailureRate AlertType = "export_failure_rate"
	AlertNoPublish         AlertType = "no_publish"
)

// Alert represents a single alert to be sent.
type Alert struct {
	Type      AlertType      `json:"type"`
	Severity  string         `json:"severity"`
	Message   string         `json:"message"`
	Details   map[string]any `json:"details,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
}

// Alerter evaluates a Snapshot against configured thresholds
// and sends alerts via webhook when thresholds are breached.
type Alerter struct {
	cfg    config.MonitoringConfig
	client *http.Client
	retry  resilience.Policy
}

// NewAlerter creates a new Alerter with the given monitoring config.
func NewAlerter(cfg config.MonitoringConfig) *Alerter {
	return &Alerter{
		cfg:    cfg,
		client: &http.Client{Timeout: 10 * time.Second},
		retry: resilience.Policy{
			MaxAttempts:    3,
			InitialBackoff: time.Second,
			ShouldRetry:    retryWebhook,
			OnRetry:        resilience.LogRetries("alert webhook"),
		},
	}
}

// Evaluate checks the snapshot against thresholds and returns any alerts.
func (a *Alerter) Evaluate(snap *Snapshot) []Alert {
	var alerts []Alert
	now := time.Now().UTC()

	minAttempts := max(a.cfg.MinAttempts, 1)
	finished := snap.Published + snap.Failed
	if finished >= minAttempts && snap.FailRate > a.cfg.FailureRateThreshold {
		alerts = append(alerts, Alert{
			Type:     AlertExportFailureRate,
			Severity: "high",
			Message: fmt.Sprintf(
				"Export failure rate %.1f%% exceeds threshold %.1f%% (%d failed / %d attempts in last %dh)",
				snap.FailRate*100, a.cfg.FailureRateThreshold*100,
				snap.Failed, finished, snap.LookbackHours,
			),
			Details: map[string]any{
				"failure_rate": snap.FailRate,
				"threshold":    a.cfg.FailureRateThreshold,
				"failed":       snap.Failed,
				"attempts":     finished,
				"last_error":   snap.LastError,
			},
			Timestamp: now,
		})
	}

	// Every attempt in the window failed.
	if snap.Failed > 0 && snap.Published == 0 {
		alerts = append(alerts, Alert{
			Type:     AlertNoPublish,
			Severity: "medium",
			Message: fmt.Sprintf(
				"No export published in last %dh (%d failed attempts)",
				snap.LookbackHours, snap.Failed,
			),
			Details: map[string]any{
				"failed":       snap.Failed,
				"last_trip_id": snap.LastTripID,
			},
			Timestamp: now,
		})
	}

	return alerts
}

// SendAlerts posts each alert to the webhook and returns how many were
// accepted. Failed deliveries are logged and skipped.
func (a *Alerter) SendAlerts(ctx context.Context, alerts []Alert) int {
	if a.cfg.WebhookURL == "" || len(alerts) == 0 {
		return 0
	}

	sent := 0
	for _, alert := range alerts {
		if err := a.deliver(ctx, alert); err != nil {
			zap.L().Error("monitoring: alert not delivered",
				zap.String("type", string(alert.Type)),
				zap.Error(err),
			)
			continue
		}
		zap.L().Info("monitoring: alert delivered",
			zap.String("type", string(alert.Type)),
			zap.String("severity", alert.Severity),
		)
		sent++
	}
	return sent
}

// webhookPayload is the alert plus a text line that chat webhooks render.
type webhookPayload struct {
	Alert
	Text string `json:"text"`
}

type webhookStatusError struct {
	code int
}

func (e *webhookStatusError) Error() string {
	return fmt.Sprintf("monitoring: webhook returned status %d", e.code)
}

func retryWebhook(err error) bool {
	var se *webhookStatusError
	if errors.As(err, &se) {
		return resilience.TransientStatus(se.code)
	}
	return resilience.IsTransient(err)
}

func (a *Alerter) deliver(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal(webhookPayload{
		Alert: alert,
		Text:  fmt.Sprintf("[%s] %s", alert.Severity, alert.Message),
	})
	if err != nil {
		return eris.Wrap(err, "monitoring: marshal alert")
	}
	return resilience.Run(ctx, a.retry, func(ctx context.Context) error {
		return a.post(ctx, payload)
	})
}

func (a *Alerter) post(ctx context.Context, payload []byte) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.cfg.WebhookURL, bytes.NewReader(payload))
	if err != nil {
		return eris.Wrap(err, "monitoring: create webhook request")
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return eris.Wrap(err, "monitoring: webhook request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		return &webhookStatusError{code: resp.StatusCode}
	}
	return nil
}
