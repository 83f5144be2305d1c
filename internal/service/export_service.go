package service

import (
	"context"
	"encoding/csv"
	"encoding/json"
	"io"

	"staffhub/internal/entity"
	"staffhub/internal/repository"

	"github.com/go-pdf/fpdf"
	"github.com/xuri/excelize/v2"
)

const (
	FormatCSV  = "csv"
	FormatJSON = "json"
	FormatXLSX = "xlsx"
	FormatPDF  = "pdf"
)

var exportHeader = []string{
	"First Name", "Last Name", "Department", "Email", "Phone",
	"Address", "Join Date", "Position", "Status",
}

type exportRow struct {
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Department string `json:"department"`
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	Address    string `json:"address"`
	JoinDate   string `json:"join_date"`
	Position   string `json:"position"`
	Status     string `json:"status"`
}

type ExportService struct {
	employees repository.EmployeeRepository
}

func NewExportService(employees repository.EmployeeRepository) *ExportService {
	return &ExportService{employees: employees}
}

// ContentType returns the MIME type and attachment filename for a format, or
// ErrUnsupportedFormat.
func (s *ExportService) ContentType(format string) (string, string, error) {
	switch format {
	case FormatCSV:
		return "text/csv", "employees.csv", nil
	case FormatJSON:
		return "application/json", "employees.json", nil
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "employees.xlsx", nil
	case FormatPDF:
		return "application/pdf", "employees.pdf", nil
	}
	return "", "", ErrUnsupportedFormat
}

func (s *ExportService) Export(ctx context.Context, format string, w io.Writer) error {
	employees, err := s.employees.ListAll(ctx, nil)
	if err != nil {
		return err
	}
	rows := buildExportRows(employees)

	switch format {
	case FormatCSV:
		return writeCSV(w, rows)
	case FormatJSON:
		return writeJSON(w, rows)
	case FormatXLSX:
		return writeXLSX(w, rows)
	case FormatPDF:
		return writePDF(w, rows)
	}
	return ErrUnsupportedFormat
}

func buildExportRows(employees []entity.Employee) []exportRow {
	rows := make([]exportRow, 0, len(employees))
	for i := range employees {
		e := &employees[i]
		row := exportRow{
			Department: string(e.Department),
			Email:      e.Email(),
			Address:    e.Address,
			JoinDate:   e.JoinDate.Format("2006-01-02"),
			Position:   e.Position,
			Status:     string(e.Status),
		}
		if e.User != nil {
			row.FirstName = e.User.FirstName
			row.LastName = e.User.LastName
		}
		if e.Phone != nil {
			row.Phone = *e.Phone
		}
		rows = append(rows, row)
	}
	return rows
}

func writeCSV(w io.Writer, rows []exportRow) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(exportHeader); err != nil {
		return err
	}
	for _, row := range rows {
		if err := writer.Write(row.fields()); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func writeJSON(w io.Writer, rows []exportRow) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(rows)
}

func writeXLSX(w io.Writer, rows []exportRow) error {
	file := excelize.NewFile()
	defer file.Close()

	sheet := "Sheet1"
	for col, header := range exportHeader {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return err
		}
		if err := file.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
	}
	for i, row := range rows {
		for col, value := range row.fields() {
			cell, err := excelize.CoordinatesToCellName(col+1, i+2)
			if err != nil {
				return err
			}
			if err := file.SetCellValue(sheet, cell, value); err != nil {
				return err
			}
		}
	}
	return file.Write(w)
}

func writePDF(w io.Writer, rows []exportRow) error {
	pdf := fpdf.New("L", "mm", "A4", "")
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.Cell(40, 10, "Employee Report")
	pdf.Ln(14)

	widths := []float64{28, 28, 30, 52, 26, 40, 26, 32, 22}

	pdf.SetFont("Helvetica", "B", 9)
	pdf.SetFillColor(217, 217, 217)
	for i, header := range exportHeader {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", true, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Helvetica", "", 8)
	for _, row := range rows {
		for i, value := range row.fields() {
			pdf.CellFormat(widths[i], 7, value, "1", 0, "C", false, 0, "")
		}
		pdf.Ln(-1)
	}

	return pdf.Output(w)
}

func (r exportRow) fields() []string {
	return []string{
		r.FirstName, r.LastName, r.Department, r.Email, r.Phone,
		r.Address, r.JoinDate, r.Position, r.Status,
	}
}
