package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/reddam/jobscout/internal/model"
)

// Ensure SheetsSync implements model.SyncSink.
var _ model.SyncSink = (*SheetsSync)(nil)

var sheetHeaders = []any{
	"Title", "Company", "Location", "Salary", "Score",
	"Source", "Posted", "Easy Apply", "Applicants", "URL",
}

// SheetsSync mirrors qualifying records into a Google Sheet. Every run
// replaces the sheet's contents wholesale (clear + rewrite), so the mirror
// is idempotent rather than append-only. The sink self-disables when the
// service-account credentials file is absent.
type SheetsSync struct {
	spreadsheetID   string
	sheetName       string
	credentialsFile string
	logger          *slog.Logger

	svc *sheets.Service // lazily created on first Sync
}

// NewSheetsSync returns a sync sink targeting the given spreadsheet.
func NewSheetsSync(spreadsheetID, sheetName, credentialsFile string, logger *slog.Logger) *SheetsSync {
	return &SheetsSync{
		spreadsheetID:   spreadsheetID,
		sheetName:       sheetName,
		credentialsFile: credentialsFile,
		logger:          logger,
	}
}

// Enabled reports whether the sink is configured and its credentials file
// exists on disk.
func (s *SheetsSync) Enabled() bool {
	if s.spreadsheetID == "" || s.credentialsFile == "" {
		return false
	}
	_, err := os.Stat(s.credentialsFile)
	return err == nil
}

func (s *SheetsSync) service(ctx context.Context) (*sheets.Service, error) {
	if s.svc != nil {
		return s.svc, nil
	}
	svc, err := sheets.NewService(ctx,
		option.WithCredentialsFile(s.credentialsFile),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("connecting to google sheets: %w", err)
	}
	s.svc = svc
	return svc, nil
}

// Sync replaces the sheet's contents with headers plus one row per job.
// Missing credentials make Sync a logged no-op rather than an error.
func (s *SheetsSync) Sync(ctx context.Context, jobs []model.Job) error {
	if !s.Enabled() {
		s.logger.Info("sheets credentials not configured, skipping sync")
		return nil
	}

	svc, err := s.service(ctx)
	if err != nil {
		return err
	}

	clearRange := s.sheetName + "!A:J"
	if _, err := svc.Spreadsheets.Values.Clear(s.spreadsheetID, clearRange, &sheets.ClearValuesRequest{}).Context(ctx).Do(); err != nil {
		return fmt.Errorf("clearing sheet range %s: %w", clearRange, err)
	}

	values := &sheets.ValueRange{Values: buildSheetRows(jobs)}
	_, err = svc.Spreadsheets.Values.
		Update(s.spreadsheetID, s.sheetName+"!A1", values).
		ValueInputOption("RAW").
		Context(ctx).
		Do()
	if err != nil {
		return fmt.Errorf("writing %d rows to sheet: %w", len(jobs), err)
	}

	s.logger.Info("sheet synced", "rows", len(jobs))
	return nil
}

// buildSheetRows renders the header row plus one row per job.
func buildSheetRows(jobs []model.Job) [][]any {
	rows := make([][]any, 0, len(jobs)+1)
	rows = append(rows, sheetHeaders)

	for _, j := range jobs {
		salary := "N/A"
		if j.Salary != nil {
			salary = fmt.Sprintf("$%d", *j.Salary)
		}
		posted := ""
		if j.PostedAt != nil {
			posted = j.PostedAt.UTC().Format(time.RFC3339)
		}
		applicants := ""
		if j.Applicants != nil {
			applicants = fmt.Sprintf("%d", *j.Applicants)
		}
		easyApply := ""
		if j.EasyApply {
			easyApply = "yes"
		}
		rows = append(rows, []any{
			j.Title, j.Company, j.Location, salary, j.Score,
			j.Source, posted, easyApply, applicants, j.URL,
		})
	}
	return rows
}
