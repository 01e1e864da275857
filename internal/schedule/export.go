package schedule

import (
	"fmt"
	"io"
	"strings"

	"shoecare/internal/models"

	"github.com/xuri/excelize/v2"
)

const (
	weekSheet        = "Week"
	collectionsSheet = "Collections"
)

// statusFills mirrors the status badge colours of the web views.
var statusFills = map[string]string{
	models.StatusPendingConfirmation: "#FEF9C3",
	models.StatusConfirmed:           "#DBEAFE",
	models.StatusInProgress:          "#F3E8FF",
	models.StatusReadyForCollection:  "#DCFCE7",
	models.StatusCompleted:           "#D1FAE5",
	models.StatusCancelled:           "#FEE2E2",
}

const neutralFill = "#F3F4F6"

// ExportWeek renders the week grid and its pending collections into a workbook.
// The caller owns the returned file and must Close it.
func ExportWeek(w Week) (*excelize.File, error) {
	f := excelize.NewFile()

	index, err := f.NewSheet(weekSheet)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("error creating sheet: %w", err)
	}
	f.SetActiveSheet(index)

	if err := writeWeekSheet(f, w); err != nil {
		f.Close()
		return nil, err
	}
	if err := writeCollectionsSheet(f, w); err != nil {
		f.Close()
		return nil, err
	}

	_ = f.DeleteSheet("Sheet1")
	return f, nil
}

// WriteWeek streams the workbook for w to out.
func WriteWeek(out io.Writer, w Week) error {
	f, err := ExportWeek(w)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(out); err != nil {
		return fmt.Errorf("error writing workbook: %w", err)
	}
	return nil
}

// FileName is the download name for w.
func FileName(w Week) string {
	return fmt.Sprintf("schedule_%s_to_%s.xlsx", dayKey(w.Start), dayKey(w.End))
}

func writeWeekSheet(f *excelize.File, w Week) error {
	title := fmt.Sprintf("Week: %s - %s", w.Start.Format("Jan 2"), w.End.Format("Jan 2, 2006"))
	if err := f.SetCellValue(weekSheet, "A1", title); err != nil {
		return fmt.Errorf("error writing title: %w", err)
	}
	_ = f.MergeCell(weekSheet, "A1", "G1")

	titleStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})
	_ = f.SetCellStyle(weekSheet, "A1", "A1", titleStyle)

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#DDEBF7"}, Pattern: 1},
		Font:      &excelize.Font{Bold: true},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	})

	styles := make(map[string]int)
	for i, day := range w.Days {
		col := i + 1
		cell, _ := excelize.CoordinatesToCellName(col, 2)
		_ = f.SetCellValue(weekSheet, cell, day.Date.Format("Mon 02.01"))
		_ = f.SetCellStyle(weekSheet, cell, cell, headerStyle)

		colName, _ := excelize.ColumnNumberToName(col)
		_ = f.SetColWidth(weekSheet, colName, colName, 32)

		if len(day.Bookings) == 0 {
			cell, _ := excelize.CoordinatesToCellName(col, 3)
			_ = f.SetCellValue(weekSheet, cell, "No bookings")
			continue
		}

		for j, b := range day.Bookings {
			cell, _ := excelize.CoordinatesToCellName(col, 3+j)
			if err := f.SetCellValue(weekSheet, cell, bookingCell(b)); err != nil {
				return fmt.Errorf("error writing booking %d: %w", b.ID, err)
			}
			style, err := statusStyle(f, styles, b.Status)
			if err == nil {
				_ = f.SetCellStyle(weekSheet, cell, cell, style)
			}
		}
	}
	return nil
}

func writeCollectionsSheet(f *excelize.File, w Week) error {
	if _, err := f.NewSheet(collectionsSheet); err != nil {
		return fmt.Errorf("error creating sheet: %w", err)
	}

	headers := []string{"ID", "Date", "Customer", "Phone", "Address", "City", "Postcode", "Status"}
	for i, header := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(collectionsSheet, cell, header)
	}

	row := 2
	for _, day := range w.Days {
		for _, b := range Collections(day.Bookings) {
			values := []any{
				b.ID,
				b.ScheduledDate.Format("02.01.2006 15:04"),
				b.CustomerName,
				deref(b.CustomerPhone),
				deref(b.CollectionAddress),
				deref(b.CollectionCity),
				deref(b.CollectionPostcode),
				models.StatusInfo(b.Status).Label,
			}
			for i, v := range values {
				cell, _ := excelize.CoordinatesToCellName(i+1, row)
				if err := f.SetCellValue(collectionsSheet, cell, v); err != nil {
					return fmt.Errorf("error writing collection %d: %w", b.ID, err)
				}
			}
			row++
		}
	}

	_ = f.SetColWidth(collectionsSheet, "A", "A", 8)
	_ = f.SetColWidth(collectionsSheet, "B", "H", 20)
	return nil
}

func bookingCell(b *models.Booking) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s %s\n", b.ScheduledDate.Format("15:04"), b.CustomerName)
	fmt.Fprintf(&sb, "%s / %s\n", b.ShoeType, b.ServiceType)
	sb.WriteString(models.StatusInfo(b.Status).Label)
	if b.CollectionRequired {
		sb.WriteString("\nCollection")
	}
	return sb.String()
}

// statusStyle returns a cached fill style for status.
func statusStyle(f *excelize.File, cache map[string]int, status string) (int, error) {
	fill, ok := statusFills[status]
	if !ok {
		fill = neutralFill
	}
	if id, ok := cache[fill]; ok {
		return id, nil
	}
	id, err := f.NewStyle(&excelize.Style{
		Fill: excelize.Fill{Type: "pattern", Color: []string{fill}, Pattern: 1},
		Alignment: &excelize.Alignment{
			Horizontal: "left",
			Vertical:   "top",
			WrapText:   true,
		},
	})
	if err != nil {
		return 0, err
	}
	cache[fill] = id
	return id, nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
