package monitoring

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/trip-export/internal/config"
	"github.com/sells-group/trip-export/internal/store"
)

func TestChecker_RunStopsOnCancel(t *testing.T) {
	collector := NewCollector(&mockStore{})
	cfg := config.MonitoringConfig{
		CheckIntervalSecs:    1,
		LookbackWindowHours:  24,
		FailureRateThreshold: 0.10,
	}
	checker := NewChecker(collector, NewAlerter(cfg), cfg)

	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		checker.Run(ctx)
		close(done)
	}()

	time.Sleep(100 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Checker.Run did not stop after context cancellation")
	}
}

func TestChecker_DefaultInterval(t *testing.T) {
	checker := NewChecker(NewCollector(&mockStore{}), NewAlerter(config.MonitoringConfig{}), config.MonitoringConfig{
		CheckIntervalSecs: 0,
	})
	assert.Equal(t, defaultCheckInterval, checker.interval)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	checker.Run(ctx)
}

func TestChecker_CheckSendsAlerts(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	st := &mockStore{recs: []store.ExportRecord{
		{TripID: "T1", Status: store.StatusFailed, CreatedAt: time.Now().Add(-time.Minute)},
	}}
	cfg := config.MonitoringConfig{
		WebhookURL:           srv.URL,
		FailureRateThreshold: 0.5,
		LookbackWindowHours:  1,
	}
	checker := NewChecker(NewCollector(st), NewAlerter(cfg), cfg)

	assert.Equal(t, 2, checker.Check(context.Background()))
	assert.Equal(t, int32(2), hits.Load())
}

func TestChecker_CheckCollectError(t *testing.T) {
	cfg := config.MonitoringConfig{LookbackWindowHours: 1}
	checker := NewChecker(NewCollector(&mockStore{listErr: assert.AnError}), NewAlerter(cfg), cfg)
	assert.Equal(t, 0, checker.Check(context.Background()))
}

func TestChecker_RepeatsOnlyAfterClear(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	failed := store.ExportRecord{TripID: "T1", Status: store.StatusFailed, CreatedAt: time.Now().Add(-time.Minute)}
	published := store.ExportRecord{TripID: "T1", Status: store.StatusPublished, CreatedAt: time.Now().Add(-time.Minute)}
	st := &mockStore{recs: []store.ExportRecord{failed}}
	cfg := config.MonitoringConfig{
		WebhookURL:           srv.URL,
		FailureRateThreshold: 0.9,
		MinAttempts:          5,
		LookbackWindowHours:  1,
	}
	checker := NewChecker(NewCollector(st), NewAlerter(cfg), cfg)

	assert.Equal(t, 1, checker.Check(context.Background()), "no_publish starts")
	assert.Equal(t, 0, checker.Check(context.Background()), "still firing")

	st.recs = []store.ExportRecord{published, failed}
	assert.Equal(t, 0, checker.Check(context.Background()), "cleared")

	st.recs = []store.ExportRecord{failed}
	assert.Equal(t, 1, checker.Check(context.Background()), "started again")
	assert.Equal(t, int32(2), hits.Load())
}

func TestChecker_UndeliveredAlertRetriedNextCheck(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	st := &mockStore{recs: []store.ExportRecord{
		{TripID: "T1", Status: store.StatusFailed, CreatedAt: time.Now().Add(-time.Minute)},
	}}
	cfg := config.MonitoringConfig{WebhookURL: srv.URL, FailureRateThreshold: 0.9, MinAttempts: 5, LookbackWindowHours: 1}
	checker := NewChecker(NewCollector(st), NewAlerter(cfg), cfg)

	assert.Equal(t, 0, checker.Check(context.Background()))
	assert.Equal(t, 1, checker.Check(context.Background()))
}
