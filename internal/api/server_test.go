package api

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"strings"
	"testing"

	"github.com/reddam/jobscout/internal/model"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// stubStore serves canned jobs and records user-state patches.
type stubStore struct {
	jobs     []model.Job
	queryErr error

	patchedID int64
	patched   model.UserPatch
}

func (s *stubStore) Upsert(model.Job) (bool, error) { return false, nil }

func (s *stubStore) Query(f model.QueryFilter) ([]model.Job, error) {
	if s.queryErr != nil {
		return nil, s.queryErr
	}
	var out []model.Job
	for _, j := range s.jobs {
		if j.Score < f.MinScore {
			continue
		}
		if f.Source != "" && j.Source != f.Source {
			continue
		}
		if f.Notified != nil && j.Notified != *f.Notified {
			continue
		}
		out = append(out, j)
	}
	sort.Slice(out, func(i, k int) bool { return out[i].Score > out[k].Score })
	if f.Limit > 0 && len(out) > f.Limit {
		out = out[:f.Limit]
	}
	return out, nil
}

func (s *stubStore) Unnotified(minScore, k int) ([]model.Job, error) { return nil, nil }
func (s *stubStore) MarkNotified([]string) error                    { return nil }

func (s *stubStore) UpdateUserState(id int64, patch model.UserPatch) error {
	for _, j := range s.jobs {
		if j.ID == id {
			s.patchedID = id
			s.patched = patch
			return nil
		}
	}
	return fmt.Errorf("job %d: %w", id, sql.ErrNoRows)
}

func (s *stubStore) Close() error { return nil }

func testJobs() []model.Job {
	return []model.Job{
		{ID: 1, URL: "https://e.com/1", Title: "Data Engineer", Company: "Acme", Score: 90, Source: "remotive"},
		{ID: 2, URL: "https://e.com/2", Title: "ETL Engineer", Company: "Beta", Score: 70, Source: "adzuna", Notified: true},
		{ID: 3, URL: "https://e.com/3", Title: "ML Engineer", Company: "Gamma", Score: 40, Source: "remotive"},
	}
}

func newTestServer(st model.Store) *httptest.Server {
	return httptest.NewServer(NewServer(st, 50, discardLogger()).Router())
}

func getJobs(t *testing.T, srv *httptest.Server, query string) []jobResponse {
	t.Helper()
	resp, err := http.Get(srv.URL + "/api/jobs" + query)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var out []jobResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	return out
}

func TestListJobs_OrderedByScore(t *testing.T) {
	srv := newTestServer(&stubStore{jobs: testJobs()})
	defer srv.Close()

	jobs := getJobs(t, srv, "")
	if len(jobs) != 3 {
		t.Fatalf("expected 3 jobs, got %d", len(jobs))
	}
	if jobs[0].Score != 90 || jobs[2].Score != 40 {
		t.Errorf("expected score-descending order, got %d..%d", jobs[0].Score, jobs[2].Score)
	}
}

func TestListJobs_Filters(t *testing.T) {
	srv := newTestServer(&stubStore{jobs: testJobs()})
	defer srv.Close()

	if jobs := getJobs(t, srv, "?min_score=60"); len(jobs) != 2 {
		t.Errorf("min_score: expected 2 jobs, got %d", len(jobs))
	}
	if jobs := getJobs(t, srv, "?source=adzuna"); len(jobs) != 1 {
		t.Errorf("source: expected 1 job, got %d", len(jobs))
	}
	if jobs := getJobs(t, srv, "?notified=false"); len(jobs) != 2 {
		t.Errorf("notified: expected 2 jobs, got %d", len(jobs))
	}
	if jobs := getJobs(t, srv, "?limit=1"); len(jobs) != 1 {
		t.Errorf("limit: expected 1 job, got %d", len(jobs))
	}
}

func TestListJobs_BadParams(t *testing.T) {
	srv := newTestServer(&stubStore{jobs: testJobs()})
	defer srv.Close()

	for _, q := range []string{"?min_score=abc", "?notified=maybe", "?limit=-1"} {
		resp, err := http.Get(srv.URL + "/api/jobs" + q)
		if err != nil {
			t.Fatalf("request failed: %v", err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s: expected 400, got %d", q, resp.StatusCode)
		}
	}
}

func TestListJobs_StoreError(t *testing.T) {
	srv := newTestServer(&stubStore{queryErr: errors.New("db broken")})
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/jobs")
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusInternalServerError {
		t.Errorf("expected 500, got %d", resp.StatusCode)
	}
}

func patchJob(t *testing.T, srv *httptest.Server, id, body string) *http.Response {
	t.Helper()
	req, err := http.NewRequest(http.MethodPatch, srv.URL+"/api/jobs/"+id, strings.NewReader(body))
	if err != nil {
		t.Fatalf("building request: %v", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}
	return resp
}

func TestPatchJob_UpdatesUserState(t *testing.T) {
	st := &stubStore{jobs: testJobs()}
	srv := newTestServer(st)
	defer srv.Close()

	resp := patchJob(t, srv, "1", `{"applied": true, "notes": "sent resume"}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", resp.StatusCode)
	}

	if st.patchedID != 1 {
		t.Errorf("expected patch on job 1, got %d", st.patchedID)
	}
	if st.patched.Applied == nil || !*st.patched.Applied {
		t.Error("expected applied=true in patch")
	}
	if st.patched.Saved != nil {
		t.Error("expected saved untouched")
	}
	if st.patched.Notes == nil || *st.patched.Notes != "sent resume" {
		t.Errorf("unexpected notes patch: %v", st.patched.Notes)
	}
}

func TestPatchJob_NotFound(t *testing.T) {
	srv := newTestServer(&stubStore{jobs: testJobs()})
	defer srv.Close()

	resp := patchJob(t, srv, "999", `{"saved": true}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("expected 404, got %d", resp.StatusCode)
	}
}

func TestPatchJob_BadRequest(t *testing.T) {
	srv := newTestServer(&stubStore{jobs: testJobs()})
	defer srv.Close()

	resp := patchJob(t, srv, "abc", `{}`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad id: expected 400, got %d", resp.StatusCode)
	}

	resp = patchJob(t, srv, "1", `{not json`)
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("bad body: expected 400, got %d", resp.StatusCode)
	}
}
