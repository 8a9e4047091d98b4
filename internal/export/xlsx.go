// Package export renders analysis results as spreadsheets.
package export

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/specscan/internal/structure"
)

const (
	DivisionsSheet = "Divisions"
	SectionsSheet  = "Sections"
)

var (
	divisionHeaders = []string{"Division", "Title", "Start Page", "End Page", "Sections", "Keyword Hits"}
	sectionHeaders  = []string{"Division", "Section", "Title", "Start Page", "End Page"}
)

// DivisionMapXLSX writes res as a workbook with one row per division and
// one row per section, both ordered by code. Unresolved pages are blank.
func DivisionMapXLSX(w io.Writer, res structure.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", DivisionsSheet); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SectionsSheet); err != nil {
		return fmt.Errorf("new sheet: %w", err)
	}

	writeRow(f, DivisionsSheet, 1, toAny(divisionHeaders))
	writeRow(f, SectionsSheet, 1, toAny(sectionHeaders))

	divRow, secRow := 2, 2
	for _, code := range res.DivisionMap.Codes() {
		d := res.DivisionMap[code]
		start, end := pageCells(d.Pages)
		writeRow(f, DivisionsSheet, divRow, []any{d.Code, d.Title, start, end, len(d.Sections), d.KeywordHits})
		divRow++

		for _, s := range d.Sections {
			start, end := pageCells(s.Pages)
			writeRow(f, SectionsSheet, secRow, []any{d.Code, s.Number, s.Title, start, end})
			secRow++
		}
	}

	_ = f.SetColWidth(DivisionsSheet, "B", "B", 40)
	_ = f.SetColWidth(SectionsSheet, "B", "B", 12)
	_ = f.SetColWidth(SectionsSheet, "C", "C", 48)

	if err := f.Write(w); err != nil {
		return fmt.Errorf("xlsx write: %w", err)
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []any) {
	for i, v := range values {
		cell, _ := excelize.CoordinatesToCellName(i+1, row)
		_ = f.SetCellValue(sheet, cell, v)
	}
}

func pageCells(p structure.PageRange) (any, any) {
	if !p.Resolved() {
		return "", ""
	}
	return p.Start, p.End
}

func toAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}
