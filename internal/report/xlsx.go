package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"
)

// Sheet names in the exported workbook.
const (
	SheetRanking    = "Ranking"
	SheetTop        = "Top Picks"
	SheetComparison = "Comparison"
	SheetPriorities = "Priorities"
)

// Workbook builds the comparison workbook for r.
func Workbook(r *Report) (*xlsx.File, error) {
	f := xlsx.NewFile()

	ranking, err := f.AddSheet(SheetRanking)
	if err != nil {
		return nil, eris.Wrap(err, "report: add ranking sheet")
	}
	addStrings(ranking, "Rank", "Tool", "Raw Score", "Percentage")
	for _, st := range r.Ranking {
		row := ranking.AddRow()
		row.AddCell().SetInt(st.Rank)
		row.AddCell().SetString(st.Tool.Name)
		row.AddCell().SetFloat(st.RawScore)
		row.AddCell().SetInt(st.Percentage)
	}

	top, err := f.AddSheet(SheetTop)
	if err != nil {
		return nil, eris.Wrap(err, "report: add top sheet")
	}
	addStrings(top, "Rank", "Tool", "Percentage", "Match Score", "Highlight")
	for _, e := range r.Top {
		row := top.AddRow()
		row.AddCell().SetInt(e.Rank)
		row.AddCell().SetString(e.Tool.Name)
		row.AddCell().SetInt(e.Percentage)
		row.AddCell().SetInt(e.MatchScore)
		row.AddCell().SetString(e.Highlight)
	}

	comparison, err := f.AddSheet(SheetComparison)
	if err != nil {
		return nil, eris.Wrap(err, "report: add comparison sheet")
	}
	header := []string{"Criterion"}
	for _, e := range r.Top {
		header = append(header, e.Tool.Name)
	}
	addStrings(comparison, header...)
	for j, c := range r.Criteria {
		values := []string{c.Name}
		for i := range r.Top {
			text := ""
			if i < len(r.Cells) && j < len(r.Cells[i]) {
				text = r.Cells[i][j]
			}
			values = append(values, text)
		}
		addStrings(comparison, values...)
	}

	priorities, err := f.AddSheet(SheetPriorities)
	if err != nil {
		return nil, eris.Wrap(err, "report: add priorities sheet")
	}
	addStrings(priorities, "Criterion", "Importance")
	for _, c := range r.Criteria {
		row := priorities.AddRow()
		row.AddCell().SetString(c.Name)
		row.AddCell().SetInt(c.UserRating)
	}

	return f, nil
}

// WriteXLSX writes the workbook for r to w.
func WriteXLSX(w io.Writer, r *Report) error {
	f, err := Workbook(r)
	if err != nil {
		return err
	}
	return eris.Wrap(f.Write(w), "report: write xlsx")
}

// ReadSheet returns the named sheet of an XLSX document as strings.
func ReadSheet(data []byte, name string) ([][]string, error) {
	f, err := xlsx.OpenBinary(data)
	if err != nil {
		return nil, eris.Wrap(err, "report: open xlsx")
	}
	sheet, ok := f.Sheet[name]
	if !ok {
		return nil, eris.Errorf("report: sheet %q not found", name)
	}
	rows := make([][]string, 0, len(sheet.Rows))
	for _, row := range sheet.Rows {
		cells := make([]string, len(row.Cells))
		for j, c := range row.Cells {
			cells[j] = c.String()
		}
		rows = append(rows, cells)
	}
	return rows, nil
}

func addStrings(sheet *xlsx.Sheet, values ...string) {
	row := sheet.AddRow()
	for _, v := range values {
		row.AddCell().SetString(v)
	}
}
