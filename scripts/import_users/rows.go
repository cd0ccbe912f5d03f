package main

import (
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

type userRow struct {
	Line     int
	Username string
	Password string
}

// readUserRows reads username and password from the first two columns,
// skipping a header row and blank lines.
func readUserRows(f *excelize.File, sheet string) ([]userRow, error) {
	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("workbook has no sheets")
		}
		sheet = sheets[0]
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}

	result := make([]userRow, 0, len(rows))
	for i, row := range rows {
		if len(row) < 2 {
			continue
		}
		username := strings.TrimSpace(row[0])
		if i == 0 && strings.EqualFold(username, "username") {
			continue
		}
		if username == "" {
			continue
		}
		result = append(result, userRow{Line: i + 1, Username: username, Password: row[1]})
	}
	return result, nil
}
