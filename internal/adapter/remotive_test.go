package adapter

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/reddam/jobscout/internal/model"
)

func TestRemotiveFetch_Success(t *testing.T) {
	payload := `{
		"jobs": [
			{
				"title": "Data Engineer",
				"company_name": "Acme Corp",
				"candidate_required_location": "USA Only",
				"url": "https://remotive.com/remote-jobs/data/data-engineer-100",
				"publication_date": "2026-08-28T10:30:00",
				"salary": "$120k - $140k",
				"description": "<p>Build pipelines with <b>Spark</b> and Airflow.</p>"
			},
			{
				"title": "ETL Developer",
				"company_name": "Beta Inc",
				"candidate_required_location": "",
				"url": "https://remotive.com/remote-jobs/data/etl-developer-200",
				"publication_date": "",
				"salary": "",
				"description": ""
			}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("category"); got != "data" {
			t.Errorf("expected category data, got %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	jobs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 2 {
		t.Fatalf("expected 2 jobs, got %d", len(jobs))
	}

	j := jobs[0]
	if j.Source != "remotive" {
		t.Errorf("expected source remotive, got %s", j.Source)
	}
	if j.Company != "Acme Corp" {
		t.Errorf("expected company Acme Corp, got %s", j.Company)
	}
	if j.Salary == nil || *j.Salary != 130000 {
		t.Errorf("expected salary 130000, got %v", j.Salary)
	}
	if j.PostedAt == nil {
		t.Fatal("expected PostedAt to be set")
	}
	if j.PostedAt.Day() != 28 {
		t.Errorf("unexpected PostedAt: %v", j.PostedAt)
	}
	if j.Description != "Build pipelines with Spark and Airflow." {
		t.Errorf("unexpected description: %q", j.Description)
	}

	// Missing location defaults to Remote; missing optionals stay unset.
	j = jobs[1]
	if j.Location != "Remote" {
		t.Errorf("expected default location Remote, got %s", j.Location)
	}
	if j.Salary != nil {
		t.Errorf("expected nil salary, got %d", *j.Salary)
	}
	if j.PostedAt != nil {
		t.Errorf("expected nil PostedAt, got %v", j.PostedAt)
	}
}

func TestRemotiveFetch_SkipsMalformedEntries(t *testing.T) {
	payload := `{
		"jobs": [
			{"title": "", "url": "https://remotive.com/x"},
			{"title": "No URL Engineer", "url": ""},
			{"title": "Data Engineer", "url": "https://remotive.com/ok"}
		]
	}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	jobs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
	if jobs[0].URL != "https://remotive.com/ok" {
		t.Errorf("unexpected survivor: %s", jobs[0].URL)
	}
}

func TestRemotiveFetch_DedupesAcrossCategories(t *testing.T) {
	payload := `{"jobs": [{"title": "Data Engineer", "url": "https://remotive.com/same"}]}`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(payload))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data", "software-dev"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	jobs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job after URL dedupe, got %d", len(jobs))
	}
}

func TestRemotiveFetch_HTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "30")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error, got nil")
	}
	var httpErr *model.HTTPError
	if !errors.As(err, &httpErr) {
		t.Fatalf("expected HTTPError, got %T", err)
	}
	if httpErr.StatusCode != http.StatusTooManyRequests {
		t.Errorf("expected status 429, got %d", httpErr.StatusCode)
	}
	if httpErr.RetryAfter.Seconds() != 30 {
		t.Errorf("expected RetryAfter 30s, got %v", httpErr.RetryAfter)
	}
}

func TestRemotiveFetch_PartialCategoryFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("category") == "data" {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`{"jobs": [{"title": "Backend Engineer", "url": "https://remotive.com/be"}]}`))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data", "software-dev"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	// One failing category must not sink the other's results.
	jobs, err := a.Fetch(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(jobs) != 1 {
		t.Fatalf("expected 1 job, got %d", len(jobs))
	}
}

func TestRemotiveFetch_MalformedJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{not valid json`))
	}))
	defer srv.Close()

	a := NewRemotiveAdapter([]string{"data"}, srv.Client(), testLimiter(), testLogger())
	a.baseURL = srv.URL

	_, err := a.Fetch(context.Background())
	if err == nil {
		t.Fatal("expected error for malformed JSON, got nil")
	}
}
