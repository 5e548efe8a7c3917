package reports

import (
	"encoding/csv"
	"io"

	"github.com/odyssey-erp/garment-dashboard/internal/table"
)

// WriteCSV serialises a rendered table, one record per row, using the
// displayed cell text.
func WriteCSV(w io.Writer, view table.View) error {
	writer := csv.NewWriter(w)
	defer writer.Flush()

	header := make([]string, len(view.Headers))
	for i, h := range view.Headers {
		header[i] = h.Label
	}
	if err := writer.Write(header); err != nil {
		return err
	}
	for _, row := range view.Rows {
		record := make([]string, len(row.Cells))
		for i, cell := range row.Cells {
			record[i] = cell.String()
		}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
