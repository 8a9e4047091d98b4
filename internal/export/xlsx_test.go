package export

import (
	"bytes"
	"testing"

	"github.com/xuri/excelize/v2"

	"github.com/dgallion1/specscan/internal/structure"
)

func TestDivisionMapXLSX(t *testing.T) {
	res := structure.Result{
		DivisionMap: structure.DivisionMap{
			"04": {
				Code:  "04",
				Title: "Masonry",
				Pages: structure.PageRange{Start: 10, End: 14},
				Sections: []structure.Section{
					{Number: "042000", Title: "Unit Masonry", Pages: structure.PageRange{Start: 10, End: 12}},
					{Number: "042200", Title: "Concrete Unit Masonry", Pages: structure.PageRange{Start: 13, End: 14}},
				},
			},
			"03": {Code: "03", Title: "Concrete", KeywordHits: 7},
		},
		ExtractionMethod: structure.MethodTOC,
	}

	var buf bytes.Buffer
	if err := DivisionMapXLSX(&buf, res); err != nil {
		t.Fatalf("DivisionMapXLSX: %v", err)
	}

	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()

	divs, err := f.GetRows(DivisionsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", DivisionsSheet, err)
	}
	if len(divs) != 3 {
		t.Fatalf("expected header + 2 division rows, got %d", len(divs))
	}
	if divs[0][0] != "Division" {
		t.Errorf("header = %v", divs[0])
	}
	// Ordered by code; unresolved pages are blank.
	if got := divs[1]; got[0] != "03" || got[2] != "" || got[5] != "7" {
		t.Errorf("row 03 = %v", got)
	}
	if got := divs[2]; got[0] != "04" || got[2] != "10" || got[3] != "14" || got[4] != "2" {
		t.Errorf("row 04 = %v", got)
	}

	secs, err := f.GetRows(SectionsSheet)
	if err != nil {
		t.Fatalf("GetRows(%s): %v", SectionsSheet, err)
	}
	if len(secs) != 3 {
		t.Fatalf("expected header + 2 section rows, got %d", len(secs))
	}
	if got := secs[2]; got[1] != "042200" || got[2] != "Concrete Unit Masonry" || got[3] != "13" {
		t.Errorf("section row = %v", got)
	}
}

func TestDivisionMapXLSXEmpty(t *testing.T) {
	var buf bytes.Buffer
	if err := DivisionMapXLSX(&buf, structure.Empty()); err != nil {
		t.Fatalf("DivisionMapXLSX: %v", err)
	}
	f, err := excelize.OpenReader(&buf)
	if err != nil {
		t.Fatalf("OpenReader: %v", err)
	}
	defer f.Close()
	if sheets := f.GetSheetList(); len(sheets) != 2 || sheets[0] != DivisionsSheet || sheets[1] != SectionsSheet {
		t.Errorf("sheets = %v", sheets)
	}
	rows, _ := f.GetRows(DivisionsSheet)
	if len(rows) != 1 {
		t.Errorf("expected header only, got %d rows", len(rows))
	}
}
