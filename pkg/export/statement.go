package export

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"strings"

	"github.com/jung-kurt/gofpdf"
	"github.com/shopspring/decimal"
)

// StatementLine is a single lesson row on an earnings statement.
type StatementLine struct {
	Date     string
	Time     string
	Topic    string
	Level    string
	Duration string
	Amount   decimal.Decimal
}

// Statement is a tutor's earnings statement for one payroll period.
type Statement struct {
	TutorName   string
	PeriodStart string
	PeriodEnd   string
	Status      string
	Lines       []StatementLine
	Total       decimal.Decimal
}

var statementHeaders = []string{"Date", "Time", "Topic", "Level", "Duration", "Amount (NOK)"}

// RenderCSV encodes the statement as CSV with a trailing total row.
func RenderCSV(st Statement) ([]byte, error) {
	buf := &bytes.Buffer{}
	writer := csv.NewWriter(buf)

	if err := writer.Write(statementHeaders); err != nil {
		return nil, fmt.Errorf("write csv headers: %w", err)
	}
	for _, line := range st.Lines {
		record := []string{line.Date, line.Time, line.Topic, line.Level, line.Duration, line.Amount.StringFixed(2)}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("write csv row: %w", err)
		}
	}
	if err := writer.Write([]string{"", "", "", "", "Total", st.Total.StringFixed(2)}); err != nil {
		return nil, fmt.Errorf("write csv total: %w", err)
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("flush csv: %w", err)
	}
	return buf.Bytes(), nil
}

// RenderPDF produces an A4 statement document with a header block, a lesson
// table and a total line.
func RenderPDF(st Statement) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(10, 15, 10)
	pdf.AddPage()

	pdf.SetFont("Arial", "B", 14)
	pdf.CellFormat(0, 10, "EARNINGS STATEMENT", "", 1, "C", false, 0, "")
	pdf.Ln(2)

	pdf.SetFont("Arial", "", 10)
	pdf.CellFormat(0, 6, fmt.Sprintf("Tutor: %s", st.TutorName), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Period: %s - %s", st.PeriodStart, st.PeriodEnd), "", 1, "L", false, 0, "")
	pdf.CellFormat(0, 6, fmt.Sprintf("Status: %s", strings.ToUpper(st.Status)), "", 1, "L", false, 0, "")
	pdf.Ln(4)

	widths := []float64{24, 16, 60, 40, 22, 28}
	pdf.SetFont("Arial", "B", 10)
	for i, header := range statementHeaders {
		pdf.CellFormat(widths[i], 8, header, "1", 0, "C", false, 0, "")
	}
	pdf.Ln(-1)

	pdf.SetFont("Arial", "", 9)
	for _, line := range st.Lines {
		cells := []string{line.Date, line.Time, line.Topic, line.Level, line.Duration, line.Amount.StringFixed(2)}
		for i, value := range cells {
			align := ""
			if i == len(cells)-1 {
				align = "R"
			}
			pdf.CellFormat(widths[i], 7, value, "1", 0, align, false, 0, "")
		}
		pdf.Ln(-1)
	}

	pdf.SetFont("Arial", "B", 10)
	pdf.CellFormat(widths[0]+widths[1]+widths[2]+widths[3], 8, "", "", 0, "", false, 0, "")
	pdf.CellFormat(widths[4], 8, "Total", "1", 0, "C", false, 0, "")
	pdf.CellFormat(widths[5], 8, st.Total.StringFixed(2), "1", 0, "R", false, 0, "")
	pdf.Ln(-1)

	buf := &bytes.Buffer{}
	if err := pdf.Output(buf); err != nil {
		return nil, fmt.Errorf("render pdf: %w", err)
	}
	return buf.Bytes(), nil
}
