package admins

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeAdminsFile(t *testing.T, header string, ids []string) string {
	t.Helper()

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetCellValue(sheet, "A1", header))
	require.NoError(t, f.SetCellValue(sheet, "B1", "name"))
	for i, id := range ids {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		require.NoError(t, err)
		require.NoError(t, f.SetCellValue(sheet, cell, id))
	}

	path := filepath.Join(t.TempDir(), "admins.xlsx")
	require.NoError(t, f.SaveAs(path))
	require.NoError(t, f.Close())
	return path
}

func TestAdminIDs(t *testing.T) {
	path := writeAdminsFile(t, "telegram_id", []string{"101", "102", "103"})
	d := NewDirectory(path)

	ids, err := d.AdminIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102, 103}, ids)
}

func TestAdminIDsAlternateHeaderAndJunkRows(t *testing.T) {
	path := writeAdminsFile(t, "Admin_ID", []string{"101", "", "oops", "102"})
	d := NewDirectory(path)

	ids, err := d.AdminIDs(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []int64{101, 102}, ids)
}

func TestAdminIDsMissingFile(t *testing.T) {
	d := NewDirectory(filepath.Join(t.TempDir(), "nope.xlsx"))
	ids, err := d.AdminIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAdminIDsNoIDColumn(t *testing.T) {
	path := writeAdminsFile(t, "nickname", []string{"101"})
	d := NewDirectory(path)

	ids, err := d.AdminIDs(context.Background())
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestAdminIDsCancelledContext(t *testing.T) {
	path := writeAdminsFile(t, "telegram_id", []string{"101"})
	d := NewDirectory(path)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.AdminIDs(ctx)
	assert.Error(t, err)
}
