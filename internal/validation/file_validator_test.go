package validation

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ledgerpulse/internal/shared/testutil"
)

func TestFileValidator_ValidateFeedFile(t *testing.T) {
	dir := t.TempDir()
	write := func(name, content string) string {
		path := filepath.Join(dir, name)
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))
		return path
	}

	tests := []struct {
		name      string
		path      string
		minFields int
		wantErr   string
	}{
		{
			name:      "works feed",
			path:      write("works.csv", testutil.WorksCSV),
			minFields: 5,
		},
		{
			name:      "header with byte order mark",
			path:      write("bom.csv", "\ufeffDate,Credit,Debit\n"),
			minFields: 3,
		},
		{
			name:      "missing file",
			path:      filepath.Join(dir, "missing.csv"),
			minFields: 5,
			wantErr:   "does not exist",
		},
		{
			name:      "directory",
			path:      dir,
			minFields: 5,
			wantErr:   "is a directory",
		},
		{
			name:      "wrong extension",
			path:      write("works.xlsx", testutil.WorksCSV),
			minFields: 5,
			wantErr:   "must be a .csv file",
		},
		{
			name:      "empty file",
			path:      write("empty.csv", ""),
			minFields: 3,
			wantErr:   "is empty",
		},
		{
			name:      "short header",
			path:      write("short.csv", "Date,Client\n"),
			minFields: 5,
			wantErr:   "need at least 5",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, _ := testutil.NewTestLogger(t)
			err := NewFileValidator(logger).ValidateFeedFile(tt.path, tt.minFields)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestFileValidator_ValidateOutputDirectory(t *testing.T) {
	v := NewFileValidator(nil)
	dir := filepath.Join(t.TempDir(), "nested", "exports")

	require.NoError(t, v.ValidateOutputDirectory(dir))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Empty(t, entries, "probe file should be removed")
}

func TestFileValidator_ValidateExportPath(t *testing.T) {
	v := NewFileValidator(nil)
	dir := t.TempDir()

	assert.NoError(t, v.ValidateExportPath(filepath.Join(dir, "dashboard.xlsx"), "xlsx"))
	assert.NoError(t, v.ValidateExportPath(filepath.Join(dir, "WORKS.CSV"), "csv"))

	err := v.ValidateExportPath(filepath.Join(dir, "dashboard.csv"), "xlsx")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must end in .xlsx")
}
