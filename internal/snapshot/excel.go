package snapshot

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"hospicrm-migrator/internal/domain"
)

// Sheet names and header labels of the operator-facing Excel export
// template. One sheet per entity type, header row first, records in
// source order below it. Missing sheets are treated as empty collections.
const (
	sheetDepartments  = "Departments"
	sheetDoctors      = "Doctors"
	sheetPatients     = "Patients"
	sheetBeds         = "Beds"
	sheetTransactions = "Transactions"
)

func decodeWorkbook(r io.Reader) (*Snapshot, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	snap := &Snapshot{}

	if rows, err := sheetRows(f, sheetDepartments); err != nil {
		return nil, err
	} else {
		for _, row := range rows {
			snap.Departments = append(snap.Departments, &domain.DepartmentRecord{
				ID:   row.str("ID"),
				Name: row.str("Name"),
			})
		}
	}

	if rows, err := sheetRows(f, sheetDoctors); err != nil {
		return nil, err
	} else {
		for _, row := range rows {
			snap.Doctors = append(snap.Doctors, &domain.DoctorRecord{
				ID:             row.str("ID"),
				FullName:       row.str("Full Name"),
				Department:     row.str("Department"),
				Specialization: row.str("Specialization"),
				Fee:            row.optFloat("Fee"),
				Phone:          row.str("Phone"),
				Email:          row.str("Email"),
				Active:         row.boolean("Active"),
			})
		}
	}

	if rows, err := sheetRows(f, sheetPatients); err != nil {
		return nil, err
	} else {
		for _, row := range rows {
			snap.Patients = append(snap.Patients, &domain.PatientRecord{
				ID:             row.str("ID"),
				PatientCode:    row.str("Patient Code"),
				FullName:       row.str("Full Name"),
				Age:            row.optInt("Age"),
				Gender:         row.str("Gender"),
				Phone:          row.str("Phone"),
				Address:        row.str("Address"),
				MedicalHistory: row.str("Medical History"),
				Active:         row.boolean("Active"),
			})
		}
	}

	if rows, err := sheetRows(f, sheetBeds); err != nil {
		return nil, err
	} else {
		for _, row := range rows {
			snap.Beds = append(snap.Beds, &domain.BedRecord{
				BedNumber:  row.str("Bed Number"),
				Department: row.str("Department"),
				RoomType:   row.str("Room Type"),
				Status:     row.str("Status"),
				PatientID:  row.optStr("Patient ID"),
				DailyRate:  row.optFloat("Daily Rate"),
			})
		}
	}

	if rows, err := sheetRows(f, sheetTransactions); err != nil {
		return nil, err
	} else {
		for _, row := range rows {
			snap.Transactions = append(snap.Transactions, &domain.TransactionRecord{
				ID:              row.str("ID"),
				PatientID:       row.str("Patient ID"),
				DoctorID:        row.optStr("Doctor ID"),
				TransactionType: row.str("Transaction Type"),
				PaymentMode:     row.str("Payment Mode"),
				Amount:          row.optFloat("Amount"),
				Department:      row.str("Department"),
				TransactionDate: row.optStr("Transaction Date"),
			})
		}
	}

	return snap, nil
}

// labeledRow maps header labels to cell values for one data row.
type labeledRow map[string]string

func (r labeledRow) str(label string) string {
	return strings.TrimSpace(r[label])
}

func (r labeledRow) optStr(label string) *string {
	v := r.str(label)
	if v == "" {
		return nil
	}
	return &v
}

func (r labeledRow) optFloat(label string) *float64 {
	v := r.str(label)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func (r labeledRow) optInt(label string) *int {
	v := r.str(label)
	if v == "" {
		return nil
	}
	// exports sometimes carry ages as "42.0"
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	i := int(f)
	return &i
}

func (r labeledRow) boolean(label string) bool {
	switch strings.ToLower(r.str(label)) {
	case "true", "yes", "1", "y":
		return true
	default:
		return false
	}
}

// sheetRows reads a sheet into labeled rows keyed by the header row.
// An absent sheet yields no rows; a sheet without a header row is an error.
func sheetRows(f *excelize.File, sheet string) ([]labeledRow, error) {
	idx, err := f.GetSheetIndex(sheet)
	if err != nil || idx < 0 {
		return nil, nil
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheet, err)
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("sheet %s has no header row", sheet)
	}

	header := rows[0]
	var out []labeledRow
	for _, cells := range rows[1:] {
		if rowEmpty(cells) {
			continue
		}
		row := labeledRow{}
		for i, label := range header {
			if i < len(cells) {
				row[strings.TrimSpace(label)] = cells[i]
			}
		}
		out = append(out, row)
	}
	return out, nil
}

func rowEmpty(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
