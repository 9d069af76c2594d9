package seed

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kantong/internal/core"
	"kantong/internal/services"
	"kantong/internal/storage"
	"kantong/internal/storage/memory"
)

const sampleYAML = `
pockets:
  - name: Tabungan
    icon: "💰"
    color: "#22aa55"
  - name: Liburan
    enableWishlist: false
templates:
  - name: Gaji
    kind: income
    amount: 8000000
  - name: Setoran tabungan
    kind: expense
    amount: 500000
    pocket: tabungan
    items:
      - name: Pokok
        amount: 450000
      - name: Biaya
        amount: 50000
`

func newLedger() *services.Ledger {
	repo := storage.NewRepository(memory.New())
	agg := services.NewAggregator(repo)
	return services.NewLedger(repo, services.NewPocketRegistry(repo, agg), agg)
}

func TestParse(t *testing.T) {
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	require.Len(t, f.Pockets, 2)
	assert.Equal(t, "Tabungan", f.Pockets[0].Name)
	assert.Equal(t, "#22aa55", f.Pockets[0].Color)
	require.NotNil(t, f.Pockets[1].EnableWishlist)
	assert.False(t, *f.Pockets[1].EnableWishlist)

	require.Len(t, f.Templates, 2)
	assert.Equal(t, []core.LineItem{{Name: "Pokok", Amount: 450_000}, {Name: "Biaya", Amount: 50_000}}, f.Templates[1].Items)
}

func TestParseRejectsUnknownFields(t *testing.T) {
	_, err := Parse([]byte("pockets:\n  - nama: Salah\n"))
	assert.ErrorContains(t, err, "failed to parse YAML")
}

func TestApplyIsIdempotent(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()
	f, err := Parse([]byte(sampleYAML))
	require.NoError(t, err)

	res, err := Apply(ctx, ledger, f)
	require.NoError(t, err)
	assert.Equal(t, Result{PocketsCreated: 2, TemplatesCreated: 2}, res)

	tabungan, ok, err := ledger.Pockets().FindByName(ctx, "TABUNGAN")
	require.NoError(t, err)
	require.True(t, ok)

	templates, err := ledger.ListTemplates(ctx)
	require.NoError(t, err)
	require.Len(t, templates, 2)
	for _, tpl := range templates {
		if tpl.Name == "Setoran tabungan" {
			assert.Equal(t, tabungan.ID, tpl.PocketID)
		} else {
			assert.Empty(t, tpl.PocketID)
		}
	}

	res, err = Apply(ctx, ledger, f)
	require.NoError(t, err)
	assert.Equal(t, Result{PocketsSkipped: 2, TemplatesSkipped: 2}, res)

	all, err := ledger.Pockets().List(ctx, core.PocketFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestApplySkipsNameOfPrimary(t *testing.T) {
	ctx := context.Background()
	ledger := newLedger()

	res, err := Apply(ctx, ledger, File{Pockets: []PocketSeed{{Name: "utama"}}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.PocketsSkipped)
}

func TestApplyUnknownTemplatePocket(t *testing.T) {
	ledger := newLedger()

	_, err := Apply(context.Background(), ledger, File{Templates: []TemplateSeed{
		{Name: "Kos", Kind: "expense", Amount: 1_000_000, Pocket: "Tidak ada"},
	}})
	assert.ErrorIs(t, err, core.ErrNotFound)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleYAML), 0o600))

	f, err := Load(path)
	require.NoError(t, err)
	assert.Len(t, f.Pockets, 2)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "failed to read seed file")
}
