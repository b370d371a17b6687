package cmd

import (
	"bytes"
	"context"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/swingtrader/config"
	"github.com/rustyeddy/swingtrader/journal"
)

// execute runs the root command; flags keep their values between calls,
// so these tests are not parallel.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func writeRaw(t *testing.T, path string, n int, phase float64) {
	t.Helper()
	var b strings.Builder
	b.WriteString("date,open,high,low,close,volume,entry,exit\n")
	d := time.Date(2022, 1, 3, 0, 0, 0, 0, time.UTC)
	prev := 50.0
	for i := 0; i < n; i++ {
		c := 50 + 0.08*float64(i) + 2*math.Sin(float64(i)/6+phase)
		o := prev
		h := math.Max(o, c) + 0.4
		l := math.Min(o, c) - 0.4
		entry := 0
		if i >= 30 && i%9 == 0 {
			entry = 1
		}
		fmt.Fprintf(&b, "%s,%.2f,%.2f,%.2f,%.2f,%d,%d,0\n", d.Format(time.DateOnly), o, h, l, c, 1_000_000+i*1000, entry)
		d = d.AddDate(0, 0, 1)
		prev = c
	}
	require.NoError(t, os.WriteFile(path, []byte(b.String()), 0o644))
}

func TestVersion(t *testing.T) {
	out, err := execute(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "swingtrader version "+version)
}

func TestConfigValidateRejectsBadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("account_value: 1000\n"), 0o644))

	_, err := execute(t, "config", "validate", "-c", path)
	require.Error(t, err)
	assert.ErrorIs(t, err, config.ErrInvalid)
}

func TestEndToEnd(t *testing.T) {
	dir := t.TempDir()
	raw := filepath.Join(dir, "raw")
	data := filepath.Join(dir, "daily")
	require.NoError(t, os.MkdirAll(raw, 0o755))
	require.NoError(t, os.MkdirAll(data, 0o755))

	cfgFile := filepath.Join(dir, "swingtrader.yaml")
	out, err := execute(t, "config", "init", "-o", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Created default configuration")

	cfg, err := config.LoadFromFile(cfgFile)
	require.NoError(t, err)
	db := filepath.Join(dir, "journal.sqlite")
	cfg.Journal.DBPath = db
	cfg.Logging.Level = "warn"
	require.NoError(t, cfg.SaveToFile(cfgFile))

	out, err = execute(t, "config", "validate", "-c", cfgFile)
	require.NoError(t, err)
	assert.Contains(t, out, "Stop: time_decay")

	for i, ticker := range []string{"AAA", "BBB"} {
		in := filepath.Join(raw, ticker+".csv")
		writeRaw(t, in, 200, float64(i))
		out, err = execute(t, "data", "enrich", in, "-c", cfgFile, "-o", filepath.Join(data, ticker+".csv"))
		require.NoError(t, err)
		assert.Contains(t, out, ticker+": 200 bars")
	}

	org := filepath.Join(dir, "run.org")
	out, err = execute(t, "backtest", "-c", cfgFile, "--data", data, "--org", org)
	require.NoError(t, err)
	assert.Contains(t, out, "Backtest Result")
	assert.Contains(t, out, "Tickers:       AAA, BBB")
	assert.Contains(t, out, "Org Report:")

	doc, err := os.ReadFile(org)
	require.NoError(t, err)
	assert.Contains(t, string(doc), "* BACKTEST: time_decay AAA,BBB")

	j, err := journal.NewSQLite(db)
	require.NoError(t, err)
	runs, err := j.ListRuns(context.Background(), 0)
	require.NoError(t, err)
	require.NoError(t, j.Close())
	require.Len(t, runs, 1)
	runID := runs[0].RunID

	out, err = execute(t, "journal", "runs", "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, runID)

	out, err = execute(t, "journal", "export", runID, "--db", db)
	require.NoError(t, err)
	assert.Contains(t, out, ":RUN_ID:        "+runID)

	if runs[0].Trades > 0 {
		out, err = execute(t, "journal", "trade", runID, "1", "--db", db)
		require.NoError(t, err)
		assert.Contains(t, out, ":TXN: 1")
	}

	_, err = execute(t, "journal", "trade", runID, "99999", "--db", db)
	assert.ErrorIs(t, err, journal.ErrNotFound)

	_, err = execute(t, "journal", "runs", "--db", filepath.Join(dir, "missing.sqlite"))
	assert.Error(t, err)
}
