// Package export renders assets for use outside the service: a CSV download,
// a JSON push to a spreadsheet endpoint and a printable handover document.
package export

import (
	"bufio"
	"io"
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

// CSVHeader is the first row of every CSV export.
var CSVHeader = []string{
	"Asset Name", "Brand", "Serial Number", "Category", "Status", "Assigned To",
	"Employee ID", "Department", "Position", "Is Rental", "Is Central", "Location", "Notes",
}

const bom = "\ufeff"

// WriteCSV writes assets as UTF-8 CSV with a byte order mark. Every field is
// quoted and embedded quotes are doubled.
func WriteCSV(w io.Writer, assets []model.Asset) error {
	bw := bufio.NewWriter(w)
	if _, err := bw.WriteString(bom); err != nil {
		return err
	}
	if err := writeRow(bw, CSVHeader); err != nil {
		return err
	}
	for _, a := range assets {
		row := []string{
			a.Name,
			a.Brand,
			a.SerialNumber,
			string(a.Category),
			a.Status.Label(),
			a.AssignedTo,
			a.EmployeeID,
			a.Department,
			a.Position,
			yesNo(a.IsRental),
			yesNo(a.IsCentral),
			a.Location,
			a.Notes,
		}
		if err := writeRow(bw, row); err != nil {
			return err
		}
	}
	return bw.Flush()
}

func writeRow(w *bufio.Writer, fields []string) error {
	for i, f := range fields {
		if i > 0 {
			if err := w.WriteByte(','); err != nil {
				return err
			}
		}
		if _, err := w.WriteString(`"` + strings.ReplaceAll(f, `"`, `""`) + `"`); err != nil {
			return err
		}
	}
	_, err := w.WriteString("\r\n")
	return err
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
