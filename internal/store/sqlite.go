package store

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/reddam/jobscout/internal/model"
)

// SQLiteStore persists job records in a SQLite database, keyed by posting
// URL. Upserts are streamed one record at a time and are atomic per row.
type SQLiteStore struct {
	db *sql.DB
}

const createTableSQL = `
CREATE TABLE IF NOT EXISTS jobs (
	id          INTEGER PRIMARY KEY AUTOINCREMENT,
	url         TEXT    UNIQUE NOT NULL,
	title       TEXT    NOT NULL,
	company     TEXT,
	location    TEXT,
	description TEXT,
	salary      INTEGER,
	source      TEXT,
	score       INTEGER DEFAULT 0,
	posted_date TEXT,
	easy_apply  INTEGER DEFAULT 0,
	applicants  INTEGER,
	scraped_at  TEXT,
	notified    INTEGER DEFAULT 0,
	applied     INTEGER DEFAULT 0,
	saved       INTEGER DEFAULT 0,
	notes       TEXT
);
CREATE INDEX IF NOT EXISTS idx_jobs_score      ON jobs(score);
CREATE INDEX IF NOT EXISTS idx_jobs_notified   ON jobs(notified);
CREATE INDEX IF NOT EXISTS idx_jobs_scraped_at ON jobs(scraped_at);
`

// NewSQLiteStore opens (or creates) a SQLite database at dbPath and ensures
// the jobs table exists.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// Verify the connection is alive.
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite db: %w", err)
	}

	if _, err := db.Exec(createTableSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating jobs table: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Upsert inserts the job when its URL is unseen; otherwise it overwrites
// only pipeline-derived columns, leaving notified, applied, saved, and
// notes untouched. Reports whether a new row was created.
func (s *SQLiteStore) Upsert(job model.Job) (bool, error) {
	// At most one pipeline run is active at a time, so an existence probe
	// before the write is enough to report insert vs update.
	var one int
	err := s.db.QueryRow("SELECT 1 FROM jobs WHERE url = ?", job.URL).Scan(&one)
	if err != nil && err != sql.ErrNoRows {
		return false, fmt.Errorf("checking job %s: %w", job.URL, err)
	}
	inserted := err == sql.ErrNoRows

	var postedDate any
	if job.PostedAt != nil {
		postedDate = job.PostedAt.UTC().Format(time.RFC3339)
	}
	var salary any
	if job.Salary != nil {
		salary = *job.Salary
	}
	var applicants any
	if job.Applicants != nil {
		applicants = *job.Applicants
	}

	_, err = s.db.Exec(`
		INSERT INTO jobs
			(url, title, company, location, description, salary, source,
			 score, posted_date, easy_apply, applicants, scraped_at,
			 notified, applied, saved, notes)
		VALUES (?,?,?,?,?,?,?,?,?,?,?,?,0,0,0,NULL)
		ON CONFLICT(url) DO UPDATE SET
			title       = excluded.title,
			company     = excluded.company,
			location    = excluded.location,
			description = excluded.description,
			salary      = excluded.salary,
			source      = excluded.source,
			score       = excluded.score,
			posted_date = excluded.posted_date,
			easy_apply  = excluded.easy_apply,
			applicants  = excluded.applicants`,
		job.URL, job.Title, job.Company, job.Location, job.Description,
		salary, job.Source, job.Score, postedDate, boolToInt(job.EasyApply),
		applicants, time.Now().UTC().Format(time.RFC3339),
	)
	if err != nil {
		return false, fmt.Errorf("upserting job %s: %w", job.URL, err)
	}

	return inserted, nil
}

// Query returns matching records ordered by score descending.
func (s *SQLiteStore) Query(f model.QueryFilter) ([]model.Job, error) {
	var (
		where []string
		args  []any
	)
	if f.MinScore > 0 {
		where = append(where, "score >= ?")
		args = append(args, f.MinScore)
	}
	if f.Source != "" {
		where = append(where, "source = ?")
		args = append(args, f.Source)
	}
	if f.Notified != nil {
		where = append(where, "notified = ?")
		args = append(args, boolToInt(*f.Notified))
	}

	q := "SELECT " + jobColumns + " FROM jobs"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += " ORDER BY score DESC, id ASC"
	if f.Limit > 0 {
		q += fmt.Sprintf(" LIMIT %d", f.Limit)
	}

	rows, err := s.db.Query(q, args...)
	if err != nil {
		return nil, fmt.Errorf("querying jobs: %w", err)
	}
	defer rows.Close()

	return scanJobs(rows)
}

// Unnotified returns up to k undelivered records at or above minScore,
// best score first.
func (s *SQLiteStore) Unnotified(minScore, k int) ([]model.Job, error) {
	notified := false
	return s.Query(model.QueryFilter{
		MinScore: minScore,
		Notified: &notified,
		Limit:    k,
	})
}

// MarkNotified flips the notified flag for the given URLs. Called only
// after the digest sink confirms delivery.
func (s *SQLiteStore) MarkNotified(urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(urls)), ",")
	args := make([]any, len(urls))
	for i, u := range urls {
		args[i] = u
	}
	_, err := s.db.Exec("UPDATE jobs SET notified = 1 WHERE url IN ("+placeholders+")", args...)
	if err != nil {
		return fmt.Errorf("marking %d jobs notified: %w", len(urls), err)
	}
	return nil
}

// UpdateUserState applies a partial merge of dashboard-owned fields. Nil
// patch fields leave their columns untouched; pipeline-derived columns are
// never written here.
func (s *SQLiteStore) UpdateUserState(id int64, patch model.UserPatch) error {
	var (
		sets []string
		args []any
	)
	if patch.Applied != nil {
		sets = append(sets, "applied = ?")
		args = append(args, boolToInt(*patch.Applied))
	}
	if patch.Saved != nil {
		sets = append(sets, "saved = ?")
		args = append(args, boolToInt(*patch.Saved))
	}
	if patch.Notes != nil {
		sets = append(sets, "notes = ?")
		args = append(args, *patch.Notes)
	}
	if len(sets) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.Exec("UPDATE jobs SET "+strings.Join(sets, ", ")+" WHERE id = ?", args...)
	if err != nil {
		return fmt.Errorf("updating user state for job %d: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return fmt.Errorf("updating user state for job %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

const jobColumns = `id, url, title, company, location, description, salary,
	source, score, posted_date, easy_apply, applicants, scraped_at,
	notified, applied, saved, notes`

func scanJobs(rows *sql.Rows) ([]model.Job, error) {
	var jobs []model.Job
	for rows.Next() {
		var (
			j          model.Job
			salary     sql.NullInt64
			applicants sql.NullInt64
			postedDate sql.NullString
			scrapedAt  sql.NullString
			notes      sql.NullString
			easyApply  int
			notified   int
			applied    int
			saved      int
		)
		if err := rows.Scan(
			&j.ID, &j.URL, &j.Title, &j.Company, &j.Location, &j.Description,
			&salary, &j.Source, &j.Score, &postedDate, &easyApply, &applicants,
			&scrapedAt, &notified, &applied, &saved, &notes,
		); err != nil {
			return nil, fmt.Errorf("scanning job row: %w", err)
		}

		if salary.Valid {
			v := int(salary.Int64)
			j.Salary = &v
		}
		if applicants.Valid {
			v := int(applicants.Int64)
			j.Applicants = &v
		}
		if postedDate.Valid && postedDate.String != "" {
			if t, err := time.Parse(time.RFC3339, postedDate.String); err == nil {
				j.PostedAt = &t
			}
		}
		if scrapedAt.Valid && scrapedAt.String != "" {
			if t, err := time.Parse(time.RFC3339, scrapedAt.String); err == nil {
				j.ScrapedAt = t
			}
		}
		j.Notes = notes.String
		j.EasyApply = easyApply != 0
		j.Notified = notified != 0
		j.Applied = applied != 0
		j.Saved = saved != 0

		jobs = append(jobs, j)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating job rows: %w", err)
	}
	return jobs, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
