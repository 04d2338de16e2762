package dedupe

import (
	"testing"
	"time"

	"github.com/reddam/jobscout/internal/model"
)

func TestKey_NormalizesFormatting(t *testing.T) {
	a := model.Job{Title: "Senior Data Engineer", Company: "Acme Corp.", Location: "Remote, US"}
	b := model.Job{Title: "senior data-engineer", Company: "ACME CORP", Location: "remote us"}

	if Key(a) != Key(b) {
		t.Errorf("expected equal keys for %+v and %+v", a, b)
	}
}

func TestKey_DifferentPostingsDiffer(t *testing.T) {
	a := model.Job{Title: "Data Engineer", Company: "Acme", Location: "Remote"}
	b := model.Job{Title: "Data Engineer", Company: "Beta", Location: "Remote"}

	if Key(a) == Key(b) {
		t.Error("expected different keys for different companies")
	}
}

func TestKey_EmptyFieldsStillHash(t *testing.T) {
	if Key(model.Job{}) == "" {
		t.Error("expected a key even for an empty record")
	}
}

func TestCollapse_RicherRecordWins(t *testing.T) {
	salary := 120000
	now := time.Now()

	thin := model.Job{URL: "https://a.example/1", Title: "Data Engineer", Company: "Acme", Location: "Remote", Source: "remotive"}
	rich := model.Job{
		URL: "https://b.example/1", Title: "Data Engineer", Company: "Acme", Location: "Remote",
		Source: "jobicy", Salary: &salary, Description: "spark", PostedAt: &now,
	}

	out := Collapse([]model.Job{thin, rich})
	if len(out) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(out))
	}
	if out[0].Source != "jobicy" {
		t.Errorf("expected richer record to win, got source %s", out[0].Source)
	}
}

func TestCollapse_TieKeepsFirstSeen(t *testing.T) {
	first := model.Job{URL: "https://a.example/1", Title: "Data Engineer", Company: "Acme", Location: "Remote", Source: "remotive"}
	second := model.Job{URL: "https://b.example/1", Title: "Data Engineer", Company: "Acme", Location: "Remote", Source: "remoteok"}

	out := Collapse([]model.Job{first, second})
	if len(out) != 1 {
		t.Fatalf("expected 1 survivor, got %d", len(out))
	}
	if out[0].Source != "remotive" {
		t.Errorf("expected first-seen to win the tie, got source %s", out[0].Source)
	}
}

func TestCollapse_PreservesFirstSeenOrder(t *testing.T) {
	jobs := []model.Job{
		{URL: "u1", Title: "Data Engineer", Company: "Acme", Location: "Remote"},
		{URL: "u2", Title: "ML Engineer", Company: "Beta", Location: "NYC"},
		{URL: "u3", Title: "Data Engineer", Company: "Acme", Location: "Remote"},
		{URL: "u4", Title: "ETL Developer", Company: "Gamma", Location: "Remote"},
	}

	out := Collapse(jobs)
	if len(out) != 3 {
		t.Fatalf("expected 3 groups, got %d", len(out))
	}
	wantTitles := []string{"Data Engineer", "ML Engineer", "ETL Developer"}
	for i, want := range wantTitles {
		if out[i].Title != want {
			t.Errorf("position %d: expected %s, got %s", i, want, out[i].Title)
		}
	}
}

func TestCollapse_Empty(t *testing.T) {
	if out := Collapse(nil); len(out) != 0 {
		t.Errorf("expected empty output, got %d", len(out))
	}
}
