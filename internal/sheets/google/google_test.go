package google

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	goption "google.golang.org/api/option"

	"kantong/internal/core"
)

func sampleSummary() core.MonthSummary {
	return core.MonthSummary{
		Month:  "2025-11",
		Budget: core.BudgetRecord{InitialBudget: 5_000_000, Carryover: 100_000, IncomeDeduction: 250_000},
		Pockets: []core.PocketSummary{
			{
				Pocket:  core.Pocket{ID: core.PrimaryPocketID, Name: core.PrimaryPocketName, Type: core.PocketPrimary, Status: core.PocketActive},
				Balance: core.PocketBalance{RealtimeBalance: 4_200_000, ProjectedBalance: 4_000_000, AvailableBalance: 4_000_000},
			},
			{
				Pocket:  core.Pocket{ID: "p1", Name: "Tabungan", Type: core.PocketCustom, Status: core.PocketActive},
				Balance: core.PocketBalance{RealtimeBalance: 0, ProjectedBalance: 250_000, AvailableBalance: 250_000},
			},
		},
		TotalExpenses:  1_000_000,
		TotalIncomes:   0,
		TotalRealtime:  4_200_000,
		TotalProjected: 4_250_000,
	}
}

func TestReportRows(t *testing.T) {
	rows := reportRows(sampleSummary())

	assert.Equal(t, []any{"Bulan", "2025-11"}, rows[0])
	assert.Equal(t, []any{"Potongan", int64(250_000)}, rows[4])
	assert.Equal(t, reportHeader, rows[7])
	assert.Equal(t, []any{"Utama", "primary", "active", int64(4_200_000), int64(4_000_000), int64(4_000_000)}, rows[8])
	assert.Equal(t, []any{"Tabungan", "custom", "active", int64(0), int64(250_000), int64(250_000)}, rows[9])
	assert.Equal(t, []any{"Total proyeksi", int64(4_250_000)}, rows[len(rows)-1])
}

func TestReportRowsHidesExcludedDeduction(t *testing.T) {
	s := sampleSummary()
	s.Exclusions.IsDeductionExcluded = true

	rows := reportRows(s)
	assert.Equal(t, []any{"Potongan", int64(0)}, rows[4])
}

func TestSheetTitle(t *testing.T) {
	assert.Equal(t, "2025-11", sheetTitle("", "2025-11"))
	assert.Equal(t, "Kantong 2025-11", sheetTitle("Kantong", "2025-11"))
}

type fakeSheets struct {
	mu      sync.Mutex
	titles  []string
	added   []string
	cleared []string
	updated map[string][][]any
	gets    int
}

func (f *fakeSheets) handler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		defer f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		path := r.URL.Path

		switch {
		case r.Method == http.MethodGet && strings.HasSuffix(path, "/spreadsheets/sheet-id"):
			f.gets++
			sheets := make([]map[string]any, 0, len(f.titles))
			for _, title := range f.titles {
				sheets = append(sheets, map[string]any{"properties": map[string]any{"title": title}})
			}
			_ = json.NewEncoder(w).Encode(map[string]any{"sheets": sheets})

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":batchUpdate"):
			var req struct {
				Requests []struct {
					AddSheet struct {
						Properties struct {
							Title string `json:"title"`
						} `json:"properties"`
					} `json:"addSheet"`
				} `json:"requests"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
			for _, rq := range req.Requests {
				f.added = append(f.added, rq.AddSheet.Properties.Title)
				f.titles = append(f.titles, rq.AddSheet.Properties.Title)
			}
			_, _ = w.Write([]byte(`{}`))

		case r.Method == http.MethodPost && strings.HasSuffix(path, ":clear"):
			f.cleared = append(f.cleared, path)
			_, _ = w.Write([]byte(`{}`))

		case r.Method == http.MethodPut && strings.Contains(path, "/values/"):
			assert.Equal(t, "USER_ENTERED", r.URL.Query().Get("valueInputOption"))
			var vr struct {
				Values [][]any `json:"values"`
			}
			require.NoError(t, json.NewDecoder(r.Body).Decode(&vr))
			f.updated[path] = vr.Values
			_, _ = w.Write([]byte(`{}`))

		default:
			t.Errorf("unexpected request %s %s", r.Method, path)
			w.WriteHeader(http.StatusNotFound)
		}
	}
}

func newTestClient(t *testing.T, f *fakeSheets) *Client {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)

	c, err := New(context.Background(), "sheet-id", "",
		goption.WithEndpoint(srv.URL+"/"),
		goption.WithHTTPClient(srv.Client()),
		goption.WithoutAuthentication())
	require.NoError(t, err)
	return c
}

func TestExportMonthCreatesSheetAndWritesRows(t *testing.T) {
	f := &fakeSheets{titles: []string{"2025-10"}, updated: map[string][][]any{}}
	c := newTestClient(t, f)

	rng, err := c.ExportMonth(context.Background(), sampleSummary())
	require.NoError(t, err)

	rows := reportRows(sampleSummary())
	assert.Equal(t, "'2025-11'!A1:F"+strconv.Itoa(len(rows)), rng)
	assert.Equal(t, []string{"2025-11"}, f.added)
	assert.Len(t, f.cleared, 1)
	require.Len(t, f.updated, 1)
	for _, values := range f.updated {
		require.Len(t, values, len(rows))
		assert.Equal(t, "Tabungan", values[9][0])
		assert.InDelta(t, 250_000, values[9][4], 0)
	}

	// Second export reuses the known tab.
	_, err = c.ExportMonth(context.Background(), sampleSummary())
	require.NoError(t, err)
	assert.Equal(t, 1, f.gets)
	assert.Len(t, f.added, 1)
}

func TestExportMonthRejectsMalformedMonth(t *testing.T) {
	f := &fakeSheets{updated: map[string][][]any{}}
	c := newTestClient(t, f)

	s := sampleSummary()
	s.Month = "2025-13"
	_, err := c.ExportMonth(context.Background(), s)
	assert.ErrorIs(t, err, core.ErrValidation)
}

func TestNewRequiresSpreadsheetID(t *testing.T) {
	_, err := New(context.Background(), "  ", "")
	assert.ErrorContains(t, err, "missing spreadsheet ID")
}

func TestServiceAccountCredentials(t *testing.T) {
	t.Setenv("GOOGLE_APPLICATION_CREDENTIALS", "")
	ctx := context.Background()

	got, err := serviceAccountCredentials(ctx, `{"type":"service_account"}`, "")
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"service_account"}`, string(got))

	path := t.TempDir() + "/sa.json"
	require.NoError(t, os.WriteFile(path, []byte(`{"type":"file"}`), 0o600))
	got, err = serviceAccountCredentials(ctx, "", path)
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"file"}`, string(got))

	_, err = serviceAccountCredentials(ctx, "", "")
	assert.ErrorContains(t, err, "missing service account credentials")

	_, err = serviceAccountCredentials(ctx, "", t.TempDir()+"/missing.json")
	assert.ErrorContains(t, err, "read service account file")
}
