package metrics

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestRecordBuild_AppearsInHandlerOutput(t *testing.T) {
	m := New()
	m.RecordBuild("web", "success")
	m.RecordWave(0, 1.5)
	m.SetActiveDevTasks(3)
	m.RecordWatchRebuild()

	req := httptest.NewRequest("GET", "/metrics", nil)
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, req)

	body := rec.Body.String()
	if !strings.Contains(body, "shuttle_builds_total") {
		t.Error("expected shuttle_builds_total in metrics output")
	}
	if !strings.Contains(body, "shuttle_wave_duration_seconds") {
		t.Error("expected shuttle_wave_duration_seconds in metrics output")
	}
	if !strings.Contains(body, "shuttle_active_dev_tasks 3") {
		t.Error("expected shuttle_active_dev_tasks gauge value")
	}
	if !strings.Contains(body, "shuttle_watch_rebuilds_total 1") {
		t.Error("expected shuttle_watch_rebuilds_total counter value")
	}
}
