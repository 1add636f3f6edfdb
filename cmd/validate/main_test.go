package main

import (
	"bytes"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/floreser-dashboard/internal/domain"
)

func writeDataset(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "dataset.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRun_Passes(t *testing.T) {
	path := writeDataset(t, "state,name,year,area\n"+
		"Pará,Altamira,2020,100\n"+
		"Pará,Altamira,2021,50\n"+
		"Amazonas,Lábrea,2020,30\n"+
		"Amazonas,Lábrea,2020,5\n")

	var out bytes.Buffer
	code := run(path, domain.YearRange{Start: 2020, End: 2021}, discardLogger(), &out)

	assert.Equal(t, 0, code, out.String())
	assert.Contains(t, out.String(), "All validations passed.")
	assert.Contains(t, out.String(), "1 (state, municipality, year) key(s) appear more than once")
}

func TestRun_FailsOnMissingColumnAndGaps(t *testing.T) {
	path := writeDataset(t, "state,name,year\nPará,Altamira,2020\n")

	var out bytes.Buffer
	code := run(path, domain.YearRange{Start: 2020, End: 2021}, discardLogger(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), `missing column "area"`)
	assert.Contains(t, out.String(), "no records for year 2021")
	assert.Contains(t, out.String(), "Validation FAILED.")
}

func TestRun_FailsOnRowWarnings(t *testing.T) {
	path := writeDataset(t, "state,name,year,area\nPará,Altamira,2020,n/a\n")

	var out bytes.Buffer
	code := run(path, domain.YearRange{Start: 2020, End: 2020}, discardLogger(), &out)

	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "1 row warning(s)")
}

func TestRun_MissingFile(t *testing.T) {
	var out bytes.Buffer
	code := run(filepath.Join(t.TempDir(), "nope.csv"), domain.YearRange{Start: 2020, End: 2020}, discardLogger(), &out)
	assert.Equal(t, 1, code)
	assert.Contains(t, out.String(), "FATAL: open dataset")
}
