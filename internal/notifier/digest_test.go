package notifier

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func digestJobs() []model.Job {
	salary := 130000
	return []model.Job{
		{URL: "https://example.com/1", Title: "Data Engineer", Company: "Acme", Location: "Remote", Score: 88, Salary: &salary, EasyApply: true},
		{URL: "https://example.com/2", Title: "ETL Engineer", Company: "Beta", Location: "NYC", Score: 71},
	}
}

func TestSlackDeliver_SendsSingleMessage(t *testing.T) {
	var (
		calls   int
		payload slackPayload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			t.Errorf("decoding payload: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewSlackDigest(srv.URL, srv.Client(), discardLogger())
	if err := d.Deliver(context.Background(), digestJobs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if calls != 1 {
		t.Fatalf("expected 1 webhook call, got %d", calls)
	}
	// Header + one section per job + divider.
	if len(payload.Blocks) != 4 {
		t.Fatalf("expected 4 blocks, got %d", len(payload.Blocks))
	}
	if payload.Blocks[0].Type != "header" {
		t.Errorf("expected header block first, got %s", payload.Blocks[0].Type)
	}
	section := payload.Blocks[1]
	if !strings.Contains(section.Text.Text, "Data Engineer") || !strings.Contains(section.Text.Text, "88") {
		t.Errorf("section missing job details: %q", section.Text.Text)
	}
	if !strings.Contains(section.Text.Text, "Easy Apply") {
		t.Errorf("expected easy apply marker: %q", section.Text.Text)
	}
}

func TestSlackDeliver_EmptyIsNoop(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("no webhook call expected for empty digest")
	}))
	defer srv.Close()

	d := NewSlackDigest(srv.URL, srv.Client(), discardLogger())
	if err := d.Deliver(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestSlackDeliver_FailureReturnsError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	d := NewSlackDigest(srv.URL, srv.Client(), discardLogger())
	if err := d.Deliver(context.Background(), digestJobs()); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestSlackDeliver_RetriesOn429(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	d := NewSlackDigest(srv.URL, srv.Client(), discardLogger())
	start := time.Now()
	if err := d.Deliver(context.Background(), digestJobs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if time.Since(start) < 900*time.Millisecond {
		t.Error("expected the retry to honor Retry-After")
	}
}

func TestLogDeliver_NeverFails(t *testing.T) {
	d := NewLogDigest(discardLogger())
	if err := d.Deliver(context.Background(), digestJobs()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestBuildSheetRows(t *testing.T) {
	rows := buildSheetRows(digestJobs())
	if len(rows) != 3 {
		t.Fatalf("expected header + 2 rows, got %d", len(rows))
	}
	if rows[0][0] != "Title" || rows[0][9] != "URL" {
		t.Errorf("unexpected header row: %v", rows[0])
	}
	if rows[1][0] != "Data Engineer" || rows[1][3] != "$130000" {
		t.Errorf("unexpected first row: %v", rows[1])
	}
	if rows[2][3] != "N/A" {
		t.Errorf("expected N/A salary, got %v", rows[2][3])
	}
}
