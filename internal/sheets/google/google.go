package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"kantong/internal/config"
	"kantong/internal/core"
	ports "kantong/internal/sheets"
)

// Client exports month summaries to one tab per month of a spreadsheet.
type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetPrefix   string

	mu    sync.Mutex
	known map[string]struct{}
}

// Ensure interface conformance
var _ ports.ReportExporter = (*Client)(nil)

// New creates a Sheets client with the given client options.
func New(ctx context.Context, spreadsheetID, sheetPrefix string, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID = strings.TrimSpace(spreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing spreadsheet ID")
	}
	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return &Client{
		svc:           svc,
		spreadsheetID: spreadsheetID,
		sheetPrefix:   strings.TrimSpace(sheetPrefix),
		known:         map[string]struct{}{},
	}, nil
}

// NewFromConfig creates a Sheets client authenticated with service account
// credentials from GOOGLE_SERVICE_ACCOUNT_JSON or GOOGLE_SERVICE_ACCOUNT_FILE.
func NewFromConfig(ctx context.Context, cfg *config.Config) (*Client, error) {
	creds, err := serviceAccountCredentials(ctx, cfg.GoogleServiceAccountJSON, cfg.GoogleServiceAccountFile)
	if err != nil {
		return nil, err
	}
	return New(ctx, cfg.GoogleSpreadsheetID, "",
		goption.WithCredentialsJSON(creds),
		goption.WithScopes(gsheet.SpreadsheetsScope))
}

// serviceAccountCredentials resolves inline JSON first, then a file path,
// then GOOGLE_APPLICATION_CREDENTIALS.
func serviceAccountCredentials(ctx context.Context, inline, file string) ([]byte, error) {
	inline = strings.TrimSpace(inline)
	file = strings.TrimSpace(file)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.DebugContext(ctx, "Using inline service account credentials")
		return []byte(inline), nil
	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		slog.DebugContext(ctx, "Read service account credentials", "path", file, "size", len(data))
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// ExportMonth replaces the month's tab with a fresh report.
func (c *Client) ExportMonth(ctx context.Context, s core.MonthSummary) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if err := s.Month.Validate(); err != nil {
		return "", err
	}

	title := sheetTitle(c.sheetPrefix, s.Month)
	if err := c.ensureSheet(ctx, title); err != nil {
		return "", err
	}

	clearRange := fmt.Sprintf("'%s'!A:F", title)
	if _, err := c.svc.Spreadsheets.Values.Clear(c.spreadsheetID, clearRange, &gsheet.ClearValuesRequest{}).
		Context(ctx).Do(); err != nil {
		return "", fmt.Errorf("failed to clear %s: %w", clearRange, err)
	}

	rows := reportRows(s)
	rng := fmt.Sprintf("'%s'!A1:F%d", title, len(rows))
	_, err := c.svc.Spreadsheets.Values.Update(c.spreadsheetID, rng, &gsheet.ValueRange{Values: rows}).
		ValueInputOption("USER_ENTERED").Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to update %s: %w", rng, err)
	}

	slog.InfoContext(ctx, "Exported month summary", "month", s.Month, "range", rng, "pockets", len(s.Pockets))
	return rng, nil
}

// ensureSheet adds the tab if the spreadsheet does not have it yet.
func (c *Client) ensureSheet(ctx context.Context, title string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.known[title]; ok {
		return nil
	}

	ss, err := c.svc.Spreadsheets.Get(c.spreadsheetID).Fields("sheets.properties.title").Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("read spreadsheet %s: %w", c.spreadsheetID, err)
	}
	for _, sh := range ss.Sheets {
		if sh.Properties != nil {
			c.known[sh.Properties.Title] = struct{}{}
		}
	}
	if _, ok := c.known[title]; ok {
		return nil
	}

	req := &gsheet.BatchUpdateSpreadsheetRequest{
		Requests: []*gsheet.Request{{
			AddSheet: &gsheet.AddSheetRequest{Properties: &gsheet.SheetProperties{Title: title}},
		}},
	}
	if _, err := c.svc.Spreadsheets.BatchUpdate(c.spreadsheetID, req).Context(ctx).Do(); err != nil {
		return fmt.Errorf("add sheet %s: %w", title, err)
	}
	c.known[title] = struct{}{}
	return nil
}
