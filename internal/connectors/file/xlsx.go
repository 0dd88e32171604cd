package file

import (
	"context"
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/custodia-labs/loam/internal/core/domain"
)

// readXLSX reads one worksheet; the first sheet when sheet is empty.
func readXLSX(ctx context.Context, path, sheet string) (*domain.Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return &domain.Table{}, nil
		}
		sheet = sheets[0]
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("sheet %q: %w", sheet, err)
	}
	if len(rows) == 0 {
		return &domain.Table{}, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	t := &domain.Table{Columns: headerNames(rows[0])}
	for _, rec := range rows[1:] {
		if blank(rec) {
			continue
		}
		t.Rows = append(t.Rows, stringRow(rec, len(t.Columns)))
	}
	return t, nil
}
