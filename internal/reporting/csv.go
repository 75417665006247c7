package reporting

import (
	"encoding/csv"
	"io"
	"strconv"
	"strings"

	"studio/internal/domain/models"
	"studio/internal/pricing"
)

// PaymentLabel is the staff-facing name of a payment type.
func PaymentLabel(t models.PaymentType) string {
	switch t {
	case models.PaymentCash:
		return "Готівка"
	case models.PaymentCard:
		return "Картка"
	case models.PaymentMixed:
		return "Готівка + Картка"
	}
	return ""
}

// CSVHeader returns the export columns; the total column is owner-only.
func CSVHeader(owner bool) []string {
	h := []string{"Дата", "Гурт", "Кімната", "Початок", "Кінець", "Годин", "Резидент", "Обладнання", "Тип оплати"}
	if owner {
		h = append(h, "Сума")
	}
	return h
}

// CSVRow projects one entry into export columns.
func CSVRow(e models.ReportEntry, table pricing.PriceTable, owner bool) []string {
	roomName := e.RoomName
	if r, ok := table.Room(e.RoomID); ok {
		roomName = r.Name
	}
	resident := "Ні"
	if e.IsResident {
		resident = "Так"
	}
	equipment := strings.Join(table.EquipmentNames(e.Equipment), ", ")
	if equipment == "" {
		equipment = "-"
	}
	row := []string{
		e.Date,
		e.BandName,
		roomName,
		e.StartTime,
		e.EndTime,
		formatNumber(e.TotalHours),
		resident,
		equipment,
		PaymentLabel(e.Payment.Type),
	}
	if owner {
		row = append(row, formatNumber(e.TotalPrice))
	}
	return row
}

// ExportCSV writes entries in the given order.
func ExportCSV(w io.Writer, entries []models.ReportEntry, table pricing.PriceTable, owner bool) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(CSVHeader(owner)); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(CSVRow(e, table, owner)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
