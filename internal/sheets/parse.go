// Package sheets turns spreadsheet exports (employee directory, laptop and
// mobile inventories) into typed records.
package sheets

import (
	"encoding/csv"
	"errors"
	"io"
	"log/slog"
	"strings"
	"unicode"

	"github.com/erazemk/oprema/internal/model"
)

// Column layout of the inventory sheets.
const (
	employeeMinColumns = 5
	laptopMinColumns   = 4
	mobileMinColumns   = 4

	laptopStatusColumn = 7
	mobileStatusColumn = 6
)

// Record is one normalised inventory row ready to be merged into the store.
type Record struct {
	Brand        string
	Name         string
	SerialNumber string
	Category     model.Category
	EmployeeID   string
	Location     string
	PhoneNumber  string
	StatusText   string
	Status       model.Status
	IsCentral    bool
	IsRental     bool
}

// NormalizeEmployeeID zero-pads purely numeric ids to six digits and returns
// anything else trimmed.
func NormalizeEmployeeID(id string) string {
	id = strings.TrimSpace(id)
	if id == "" {
		return ""
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return id
		}
	}
	if len(id) >= 6 {
		return id
	}
	return strings.Repeat("0", 6-len(id)) + id
}

// DeriveStatus maps the free-text status of an inventory row to a status.
// Matching is case-insensitive and the first rule that matches wins. central
// is true when the row is held by a location rather than a person.
func DeriveStatus(statusText, employeeID, location string) (status model.Status, central bool) {
	s := strings.ToLower(statusText)
	switch {
	case strings.Contains(s, "lost"):
		return model.StatusLost, false
	case strings.Contains(s, "damaged"), strings.Contains(s, "broken"), strings.Contains(s, "write-off"):
		return model.StatusBroken, false
	case strings.Contains(s, "pending"), strings.Contains(s, "repair"):
		return model.StatusRepair, false
	case employeeID != "":
		return model.StatusAssigned, false
	case location != "":
		return model.StatusAssigned, true
	case strings.Contains(s, "active") && !strings.Contains(s, "stock"):
		return model.StatusAssigned, false
	default:
		return model.StatusAvailable, false
	}
}

// ParseEmployees parses the employee directory sheet. Rows with fewer than
// five columns are dropped.
func ParseEmployees(data string) []model.Employee {
	var out []model.Employee
	for _, row := range readRows(data) {
		if len(row) < employeeMinColumns {
			continue
		}
		e := model.Employee{
			ID:         NormalizeEmployeeID(row[0]),
			Name:       row[1],
			Nickname:   row[2],
			Department: row[3],
			Position:   row[4],
			Email:      column(row, 5),
			Status:     column(row, 6),
		}
		if e.ID == "" {
			continue
		}
		if e.Status == "" {
			e.Status = "Active"
		}
		out = append(out, e)
	}
	return out
}

// ParseLaptops parses the laptop inventory sheet: brand, model name, serial,
// employee id, location, and a status column further right.
func ParseLaptops(data string) []Record {
	var out []Record
	for _, row := range readRows(data) {
		if len(row) < laptopMinColumns {
			continue
		}
		r := Record{
			Brand:        row[0],
			Name:         row[1],
			SerialNumber: row[2],
			Category:     model.CategoryLaptop,
			EmployeeID:   NormalizeEmployeeID(row[3]),
			Location:     column(row, 4),
			StatusText:   column(row, laptopStatusColumn),
		}
		r.Status, r.IsCentral = DeriveStatus(r.StatusText, r.EmployeeID, r.Location)
		out = append(out, r)
	}
	return out
}

// ParseMobiles parses the mobile inventory sheet: brand, model name, serial
// (IMEI), phone number, employee id, location and status.
func ParseMobiles(data string) []Record {
	var out []Record
	for _, row := range readRows(data) {
		if len(row) < mobileMinColumns {
			continue
		}
		r := Record{
			Brand:        row[0],
			Name:         row[1],
			SerialNumber: row[2],
			Category:     model.CategoryMobile,
			PhoneNumber:  row[3],
			EmployeeID:   NormalizeEmployeeID(column(row, 4)),
			Location:     column(row, 5),
			StatusText:   column(row, mobileStatusColumn),
		}
		r.Status, r.IsCentral = DeriveStatus(r.StatusText, r.EmployeeID, r.Location)
		out = append(out, r)
	}
	return out
}

// readRows splits data into trimmed fields, skipping the header row. Rows the
// CSV reader rejects are dropped.
func readRows(data string) [][]string {
	data = strings.TrimPrefix(data, "\ufeff")

	reader := csv.NewReader(strings.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	var rows [][]string
	header := true
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var pe *csv.ParseError
			if errors.As(err, &pe) {
				slog.Debug("dropping malformed sheet row", "line", pe.Line, "error", pe.Err)
				continue
			}
			slog.Warn("stopped reading sheet", "error", err)
			break
		}
		if header {
			header = false
			continue
		}
		for i := range record {
			record[i] = trimField(record[i])
		}
		if blank(record) {
			continue
		}
		rows = append(rows, record)
	}
	return rows
}

// trimField strips surrounding whitespace and one layer of surrounding quotes.
func trimField(s string) string {
	s = strings.TrimFunc(s, unicode.IsSpace)
	if len(s) >= 2 && s[0] == '"' && s[len(s)-1] == '"' {
		s = strings.TrimFunc(s[1:len(s)-1], unicode.IsSpace)
	}
	return s
}

func blank(row []string) bool {
	for _, f := range row {
		if f != "" {
			return false
		}
	}
	return true
}

func column(row []string, i int) string {
	if i < len(row) {
		return row[i]
	}
	return ""
}
