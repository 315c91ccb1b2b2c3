package report

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Houeta/timekeeper-bot/internal/models"
	"github.com/xuri/excelize/v2"
)

// ErrNoRows is returned when the requested period contains no closed sessions.
var ErrNoRows = errors.New("failed to generate report, no attendance rows were provided")

// sheetName is the single worksheet of the attendance workbook.
const sheetName = "Отчёт"

// Generator holds the state for the Excel report generation process.
type Generator struct {
	file *excelize.File
}

// NewGenerator creates a new report generator.
func NewGenerator() *Generator {
	return &Generator{
		file: excelize.NewFile(),
	}
}

// GenerateExcelReport renders the attendance rows into an Excel workbook:
// one line per employee with days attended, total worked time, average per
// day and accumulated overtime. It returns a buffer with the file contents,
// or ErrNoRows when there is nothing to report.
func GenerateExcelReport(rows []models.AttendanceRow) (*bytes.Buffer, error) {
	var err error

	if len(rows) == 0 {
		return nil, ErrNoRows
	}

	gen := NewGenerator()
	defer gen.file.Close()

	if _, err = gen.file.NewSheet(sheetName); err != nil {
		return nil, fmt.Errorf("failed to create sheet '%s': %w", sheetName, err)
	}

	if err = gen.setupSheet(len(rows)); err != nil {
		return nil, fmt.Errorf("failed to setup sheet: %w", err)
	}

	headerIndex := 2
	for i, row := range rows {
		if err = gen.addRow(i+headerIndex, row); err != nil { // i+2, because the first row - header
			return nil, fmt.Errorf("failed to add row '%d': %w", i+headerIndex, err)
		}
	}

	gen.file.SetActiveSheet(0)

	// delete default sheet
	if sheetIndex, _ := gen.file.GetSheetIndex("Sheet1"); sheetIndex != -1 {
		if err = gen.file.DeleteSheet("Sheet1"); err != nil {
			return nil, fmt.Errorf("failed to delete default sheet 'Sheet1': %w", err)
		}
	}

	buffer, err := gen.file.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write data from saved file: %w", err)
	}

	return buffer, nil
}

// setupSheet initializes the sheet with headers, styles, and column widths.
// It creates a header style, sets the row height for the headers, populates
// the header row and adds a table spanning the data range.
func (g *Generator) setupSheet(rowCount int) error {
	var err error

	// Style creating
	headerStyle, err := g.file.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#4F81BD"}, Pattern: 1},
		Alignment: &excelize.Alignment{Vertical: "center", Horizontal: "center"},
		Border: []excelize.Border{
			{Type: "left", Color: "000000", Style: 1},
			{Type: "top", Color: "000000", Style: 1},
			{Type: "bottom", Color: "000000", Style: 1},
			{Type: "right", Color: "000000", Style: 1},
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create new style: %w", err)
	}

	// Headers creating
	rowHeight := 20
	headers := []string{"ФИО", "Дней", "Отработано", "Ср. в день", "Переработка"}
	if err = g.file.SetRowHeight(sheetName, 1, float64(rowHeight)); err != nil {
		return fmt.Errorf("failed to set row height for headers: %w", err)
	}
	if err = g.file.SetSheetRow(sheetName, "A1", &headers); err != nil {
		return fmt.Errorf("failed to set sheet row for headers: %w", err)
	}
	if err = g.file.SetCellStyle(sheetName, "A1", "E1", headerStyle); err != nil {
		return fmt.Errorf("failed to set cell style for headers: %w", err)
	}

	// Setup width column
	widths := map[string]float64{
		"A": 35, "B": 10, "C": 16, "D": 16, "E": 16, //nolint:mnd // const values for row width
	}
	for col, width := range widths {
		if err = g.file.SetColWidth(sheetName, col, col, width); err != nil {
			return fmt.Errorf("failed to set column width: %w", err)
		}
	}

	// Add table
	if err = g.file.AddTable(sheetName, &excelize.Table{
		Range:     fmt.Sprintf("A1:E%d", rowCount+1),
		Name:      "table_attendance",
		StyleName: "TableStyleMedium9",
	}); err != nil {
		return fmt.Errorf("failed to add table: %w", err)
	}

	return nil
}

// addRow adds one employee's attendance line at the given row number.
func (g *Generator) addRow(rowNum int, row models.AttendanceRow) error {
	rowData := []interface{}{
		row.FullName,
		row.Days,
		FormatDuration(row.Total),
		FormatDuration(row.AveragePerDay()),
		FormatDuration(row.Overtime),
	}
	cell, _ := excelize.CoordinatesToCellName(1, rowNum)

	if err := g.file.SetSheetRow(sheetName, cell, &rowData); err != nil {
		return fmt.Errorf("failed to set sheet row: %w", err)
	}

	return nil
}

// GenerateTextReport renders the attendance rows as a chat message.
func GenerateTextReport(rows []models.AttendanceRow, from, to time.Time) string {
	const dateLayout = "2006-01-02"

	if len(rows) == 0 {
		return fmt.Sprintf("За период %s — %s данных не найдено.", from.Format(dateLayout), to.Format(dateLayout))
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Отчёт за период %s — %s:", from.Format(dateLayout), to.Format(dateLayout)))

	for _, row := range rows {
		builder.WriteString(fmt.Sprintf(
			"\n%s: дней: %d, общее: %s, ср. в день: %s, переработка: %s",
			row.FullName,
			row.Days,
			FormatDuration(row.Total),
			FormatDuration(row.AveragePerDay()),
			FormatDuration(row.Overtime),
		))
	}

	return builder.String()
}

// FormatDuration renders a duration as "N ч. MM мин.".
func FormatDuration(d time.Duration) string {
	totalMinutes := int(d.Minutes())
	return fmt.Sprintf("%d ч. %02d мин.", totalMinutes/60, totalMinutes%60)
}
