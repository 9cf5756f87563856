package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/kirillkom/legal-violation-analyzer/internal/core/domain"
)

const violationsSheet = "Violations"

// ViolationsXLSX writes one row per violation under a header row. Absent
// fields are left as blank cells.
func ViolationsXLSX(w io.Writer, source string, violations []domain.Violation) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", violationsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}

	headers := []string{"#", "Clause", "Description", "Source"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(violationsSheet, cell, h)
	}

	for idx, v := range violations {
		row := idx + 2
		write := func(col int, value any) {
			cell, _ := excelize.CoordinatesToCellName(col, row)
			_ = f.SetCellValue(violationsSheet, cell, value)
		}
		write(1, idx+1)
		write(2, v.ClauseText())
		write(3, v.DescriptionText())
		write(4, source)
	}

	_ = f.SetColWidth(violationsSheet, "A", "A", 6)
	_ = f.SetColWidth(violationsSheet, "B", "B", 32)
	_ = f.SetColWidth(violationsSheet, "C", "C", 80)
	_ = f.SetColWidth(violationsSheet, "D", "D", 40)

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}
