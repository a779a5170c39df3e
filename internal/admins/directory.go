// Package admins resolves the current admin recipient set from an Excel
// workbook maintained by the operators. The file is re-read on every call so
// adding or removing an admin needs no restart.
package admins

import (
	"context"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
)

// idColumns are the accepted header names for the admin id column,
// case-insensitive.
var idColumns = map[string]struct{}{
	"telegram_id": {},
	"id":          {},
	"admin_id":    {},
}

type Directory struct {
	path string
}

func NewDirectory(path string) *Directory {
	return &Directory{path: path}
}

// AdminIDs loads the admin Telegram ids from the workbook's first sheet.
// A missing file or missing id column yields an empty set with a warning,
// not an error: an unreachable directory must never block order intake.
func (d *Directory) AdminIDs(ctx context.Context) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(d.path); err != nil {
		zap.L().Warn("admins file not found", zap.String("path", d.path))
		return nil, nil
	}

	f, err := excelize.OpenFile(d.path)
	if err != nil {
		zap.L().Warn("failed to open admins file", zap.Error(err), zap.String("path", d.path))
		return nil, nil
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, nil
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		zap.L().Warn("failed to read admins sheet", zap.Error(err), zap.String("path", d.path))
		return nil, nil
	}
	if len(rows) == 0 {
		return nil, nil
	}

	col := -1
	for i, header := range rows[0] {
		if _, ok := idColumns[strings.ToLower(strings.TrimSpace(header))]; ok {
			col = i
			break
		}
	}
	if col < 0 {
		zap.L().Warn("no telegram_id column in admins file", zap.String("path", d.path))
		return nil, nil
	}

	var ids []int64
	for _, row := range rows[1:] {
		if col >= len(row) {
			continue
		}
		cell := strings.TrimSpace(row[col])
		if cell == "" {
			continue
		}
		id, err := strconv.ParseInt(cell, 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
