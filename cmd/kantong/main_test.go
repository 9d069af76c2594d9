package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommandTree(t *testing.T) {
	root := newRootCmd(&state{})

	for _, path := range [][]string{
		{"pocket", "create"},
		{"pocket", "archive"},
		{"expense", "add"},
		{"income", "list"},
		{"transfer", "update"},
		{"budget", "set"},
		{"month", "lock"},
		{"month", "deduction"},
		{"balance"},
		{"summary"},
		{"reconcile"},
		{"template", "apply"},
		{"income-names"},
		{"seed"},
		{"version"},
	} {
		cmd, _, err := root.Find(path)
		require.NoError(t, err, "command %v", path)
		assert.Equal(t, path[len(path)-1], cmd.Name())
	}
}

func TestTransactionFlagsPerKind(t *testing.T) {
	root := newRootCmd(&state{})

	expenseAdd, _, err := root.Find([]string{"expense", "add"})
	require.NoError(t, err)
	assert.NotNil(t, expenseAdd.Flags().Lookup("pocket"))
	assert.NotNil(t, expenseAdd.Flags().Lookup("from-income"))
	assert.Nil(t, expenseAdd.Flags().Lookup("to"))

	incomeAdd, _, err := root.Find([]string{"income", "add"})
	require.NoError(t, err)
	assert.NotNil(t, incomeAdd.Flags().Lookup("deduction"))
	assert.Nil(t, incomeAdd.Flags().Lookup("from-income"))

	transferAdd, _, err := root.Find([]string{"transfer", "add"})
	require.NoError(t, err)
	assert.NotNil(t, transferAdd.Flags().Lookup("from"))
	assert.NotNil(t, transferAdd.Flags().Lookup("to"))
	assert.Nil(t, transferAdd.Flags().Lookup("pocket"))
}

func TestVersionSkipsStore(t *testing.T) {
	t.Setenv("DATA_BACKEND", "nope")

	var out bytes.Buffer
	root := newRootCmd(&state{})
	root.SetArgs([]string{"version"})
	root.SetOut(&out)
	require.NoError(t, root.Execute())
	assert.Equal(t, "kantong dev\n", out.String())
}

func TestInvalidConfigFails(t *testing.T) {
	t.Setenv("DATA_BACKEND", "nope")

	err := runErr(t, "summary")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid data backend")
}

func setupCLIEnv(t *testing.T) {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("DATA_BACKEND", "bolt")
	t.Setenv("BOLT_DB_PATH", filepath.Join(dir, "kantong.db"))
	t.Setenv("AMQP_URL", "")
	t.Setenv("GOOGLE_SPREADSHEET_ID", "")
	t.Setenv("RATES_API_URL", "")
	t.Setenv("TIMEZONE", "UTC")
	t.Setenv("LOG_LEVEL", "error")
}

func run(t *testing.T, args ...string) string {
	t.Helper()
	var out, errOut bytes.Buffer
	st := &state{}
	root := newRootCmd(st)
	root.SetArgs(args)
	root.SetOut(&out)
	root.SetErr(&errOut)
	require.NoError(t, execute(context.Background(), root, st), "kantong %v: %s", args, errOut.String())
	return out.String()
}

func runErr(t *testing.T, args ...string) error {
	t.Helper()
	st := &state{}
	root := newRootCmd(st)
	root.SetArgs(args)
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	return execute(context.Background(), root, st)
}

func TestLedgerEndToEnd(t *testing.T) {
	setupCLIEnv(t)

	out := run(t, "pocket", "create", "Tabungan", "--icon", "💰")
	assert.Contains(t, out, "Created pocket 💰 Tabungan")

	out = run(t, "budget", "set", "-m", "2025-11", "--initial", "3000000")
	assert.Contains(t, out, "base Rp3.000.000")

	out = run(t, "expense", "add", "Belanja", "--amount", "400000", "--date", "2025-11-02")
	assert.Contains(t, out, "Recorded expense")
	assert.Contains(t, out, "Rp400.000")

	out = run(t, "transfer", "add", "Nabung", "--amount", "500000", "--date", "2025-11-05", "--to", "tabungan")
	assert.Contains(t, out, "Recorded transfer")

	out = run(t, "balance", "-m", "2025-11")
	assert.Contains(t, out, "Rp2.100.000")

	out = run(t, "balance", "Tabungan", "-m", "2025-11")
	assert.Contains(t, out, "Rp500.000")

	out = run(t, "expense", "list", "-m", "2025-11")
	assert.Contains(t, out, "Belanja")

	out = run(t, "summary", "-m", "2025-11")
	assert.Contains(t, out, "Summary for 2025-11")
	assert.Contains(t, out, "Tabungan")
	assert.Contains(t, out, "Rp2.600.000")

	out = run(t, "reconcile", "-m", "2025-11")
	assert.Contains(t, out, "2025-11: ok")
}

func TestLockedMonthRejectsWrites(t *testing.T) {
	setupCLIEnv(t)

	run(t, "month", "lock", "-m", "2025-11")
	err := runErr(t, "expense", "add", "Kopi", "--amount", "25000", "--date", "2025-11-03")
	require.Error(t, err)

	run(t, "month", "unlock", "-m", "2025-11")
	out := run(t, "expense", "add", "Kopi", "--amount", "25000", "--date", "2025-11-03")
	assert.Contains(t, out, "Rp25.000")
}

func TestTemplatesAndIncomeNames(t *testing.T) {
	setupCLIEnv(t)

	out := run(t, "template", "add", "Gaji", "--kind", "income", "--amount", "8000000")
	assert.Contains(t, out, "Saved template Gaji")

	out = run(t, "template", "list")
	assert.Contains(t, out, "Gaji")
	assert.Contains(t, out, "Rp8.000.000")

	out = run(t, "income", "add", "Bonus Tahunan", "--amount", "1000000", "--date", "2025-11-25")
	assert.Contains(t, out, "Recorded income")

	out = run(t, "income-names", "bon")
	assert.Contains(t, out, "Bonus Tahunan")
}

func TestSeedCommand(t *testing.T) {
	setupCLIEnv(t)

	path := filepath.Join(t.TempDir(), "seed.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`pockets:
  - name: Darurat
templates:
  - name: Listrik
    kind: expense
    amount: 350000
    pocket: Darurat
`), 0o600))

	out := run(t, "seed", path)
	assert.Contains(t, out, "Pockets: 1 created, 0 skipped")
	assert.Contains(t, out, "Templates: 1 created, 0 skipped")

	out = run(t, "seed", path)
	assert.Contains(t, out, "Pockets: 0 created, 1 skipped")

	out = run(t, "pocket", "list")
	assert.Contains(t, out, "Darurat")
}
