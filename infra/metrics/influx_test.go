package metrics

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/kilianp07/powertask/core/events"
	coremetrics "github.com/kilianp07/powertask/core/metrics"
	"github.com/kilianp07/powertask/core/task"
)

func TestInfluxSink_RecordOutcome(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	ev := events.TaskOutcome{TaskID: 0xB007, Name: "Demo B", Result: task.Done(), Duration: 3 * time.Millisecond}
	if err := sink.RecordOutcome(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(body, "task_outcome") {
		t.Fatalf("measurement missing: %s", body)
	}
	if !strings.Contains(body, "task_id=b007") || !strings.Contains(body, "kind=completed") {
		t.Fatalf("tags missing: %s", body)
	}
}

func TestInfluxSink_RecordAdmissionSkip(t *testing.T) {
	var body string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		data, _ := io.ReadAll(r.Body)
		body = string(data)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	sink := NewInfluxSink(srv.URL, "token", "org", "bucket")
	defer sink.Close()

	ev := events.AdmissionSkip{TaskID: 0xA123, Name: "hungry", Need: 10000, Available: 200}
	if err := sink.RecordAdmissionSkip(ev); err != nil {
		t.Fatalf("record error: %v", err)
	}
	if !strings.Contains(body, "admission_skip") || !strings.Contains(body, "task_id=a123") {
		t.Fatalf("unexpected body: %s", body)
	}
}

func TestInfluxSinkFallbackWhenUnhealthy(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	sink := NewInfluxSinkWithFallback(srv.URL, "token", "org", "bucket")
	if _, ok := sink.(coremetrics.NopSink); !ok {
		t.Fatalf("expected NopSink fallback, got %T", sink)
	}
}
