package services

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"studio/internal/domain/models"
	"studio/internal/pricing"
	"studio/internal/reporting"
	"studio/internal/utils"

	"github.com/phpdave11/gofpdf"
)

// DocsService renders the monthly report and booking receipts as PDF.
type DocsService struct {
	Reports   ReportService
	Bookings  BookingService
	Prices    PriceSource
	RequestID string

	ReportLoader  func(ctx context.Context, v reporting.Viewer, f reporting.Filter) ([]models.ReportEntry, error)
	BookingLoader func(ctx context.Context, id string) (models.Booking, error)
}

func (s DocsService) prices(ctx context.Context) pricing.PriceTable {
	if s.Prices != nil {
		return s.Prices.Current(ctx)
	}
	return pricing.DefaultPriceTable()
}

func (s DocsService) loadReport(ctx context.Context, v reporting.Viewer, f reporting.Filter) ([]models.ReportEntry, error) {
	if s.ReportLoader != nil {
		return s.ReportLoader(ctx, v, f)
	}
	return s.Reports.List(ctx, v, f)
}

func (s DocsService) loadBooking(ctx context.Context, id string) (models.Booking, error) {
	if s.BookingLoader != nil {
		return s.BookingLoader(ctx, id)
	}
	return s.Bookings.Get(ctx, id)
}

// MonthlyReport renders the filtered report with its statistics.
func (s DocsService) MonthlyReport(ctx context.Context, v reporting.Viewer, f reporting.Filter) ([]byte, string, error) {
	entries, err := s.loadReport(ctx, v, f)
	if err != nil {
		return nil, "", err
	}
	table := s.prices(ctx)
	st := reporting.Statistics(entries, table.Rooms, v)
	utils.LogEvent(s.RequestID, "docs", "report_pdf", fmt.Sprintf("month=%s entries=%d", f.Month, len(entries)))
	return buildReportPDF(f.Month, entries, st, table, v.Owner)
}

// BookingReceipt renders a single booking with its price breakdown.
func (s DocsService) BookingReceipt(ctx context.Context, id string) ([]byte, string, error) {
	b, err := s.loadBooking(ctx, id)
	if err != nil {
		return nil, "", err
	}
	table := s.prices(ctx)
	q := pricing.Calculate(table, pricing.RequestFromBooking(b))
	utils.LogEvent(s.RequestID, "docs", "receipt_pdf", "booking_id="+b.ID)
	return buildReceiptPDF(b, q, table)
}

type pdfDoc struct {
	pdf *gofpdf.Fpdf
	tr  func(string) string
}

func newPDF(orientation, title string) pdfDoc {
	pdf := gofpdf.New(orientation, "mm", "A4", "")
	pdf.SetTitle(title, true)
	pdf.AddPage()
	return pdfDoc{pdf: pdf, tr: pdf.UnicodeTranslatorFromDescriptor("")}
}

func (d pdfDoc) text(s string) string { return d.tr(transliterate(s)) }

func (d pdfDoc) line(h float64, s string) {
	d.pdf.Cell(0, h, d.text(s))
	d.pdf.Ln(h)
}

func (d pdfDoc) heading(size float64, s string) {
	d.pdf.SetFont("Helvetica", "B", size)
	d.line(size*0.6, s)
	d.pdf.SetFont("Helvetica", "", 11)
}

func (d pdfDoc) output() ([]byte, error) {
	var buf bytes.Buffer
	if err := d.pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func buildReportPDF(month string, entries []models.ReportEntry, st reporting.Stats, table pricing.PriceTable, owner bool) ([]byte, string, error) {
	d := newPDF("L", "Studio report "+month)
	d.heading(18, "Studio report "+safe(month, "all months"))
	d.pdf.Ln(2)

	d.line(6, fmt.Sprintf("Bookings: %d   Residents: %d   Hours: %s", st.TotalBookings, st.ResidentBookings, formatHours(st.TotalHours)))
	if owner {
		d.line(6, "Revenue: "+utils.FormatHryvnia(st.TotalRevenue))
	}
	d.pdf.Ln(3)

	if owner {
		d.heading(13, "Revenue by room")
		for _, r := range st.RevenueByRoom {
			d.line(6, fmt.Sprintf("%s: %s (%s h)", r.RoomName, utils.FormatHryvnia(r.Revenue), formatHours(r.Hours)))
		}
		d.pdf.Ln(2)
		d.heading(13, "Revenue by payment type")
		for _, p := range st.RevenueByPaymentType {
			d.line(6, fmt.Sprintf("%s: %s (%d)", p.Label, utils.FormatHryvnia(p.Revenue), p.Count))
		}
		d.pdf.Ln(2)
	}

	d.heading(13, "Salary")
	d.line(6, fmt.Sprintf("1-15: %d bookings, commission %s, base %s, total %s",
		st.Salary.FirstHalf.Bookings, utils.FormatHryvnia(st.Salary.FirstHalf.Commission),
		utils.FormatHryvnia(st.Salary.FirstHalf.BaseSalary), utils.FormatHryvnia(st.Salary.FirstHalf.Total)))
	d.line(6, fmt.Sprintf("16-end: %d bookings, commission %s, base %s, total %s",
		st.Salary.SecondHalf.Bookings, utils.FormatHryvnia(st.Salary.SecondHalf.Commission),
		utils.FormatHryvnia(st.Salary.SecondHalf.BaseSalary), utils.FormatHryvnia(st.Salary.SecondHalf.Total)))
	d.line(6, "Total salary: "+utils.FormatHryvnia(st.Salary.Total))
	for _, a := range st.SalaryByAdmin {
		d.line(6, fmt.Sprintf("  %s: %d bookings, %s", a.AdminID, a.BookingsCount, utils.FormatHryvnia(a.Total)))
	}
	d.pdf.Ln(4)

	header := reporting.CSVHeader(owner)
	widths := []float64{22, 50, 28, 16, 16, 14, 18, 58, 30}
	if owner {
		widths = append(widths, 24)
	}
	d.pdf.SetFont("Helvetica", "B", 9)
	for i, h := range header {
		d.pdf.CellFormat(widths[i], 7, d.text(h), "1", 0, "L", false, 0, "")
	}
	d.pdf.Ln(-1)
	d.pdf.SetFont("Helvetica", "", 9)
	for _, e := range entries {
		for i, col := range reporting.CSVRow(e, table, owner) {
			d.pdf.CellFormat(widths[i], 6, d.text(clip(col, int(widths[i]/1.8))), "1", 0, "L", false, 0, "")
		}
		d.pdf.Ln(-1)
	}

	out, err := d.output()
	if err != nil {
		return nil, "", err
	}
	return out, fmt.Sprintf("REPORT_%s.pdf", safeFilenamePart(month)), nil
}

func buildReceiptPDF(b models.Booking, q pricing.Quote, table pricing.PriceTable) ([]byte, string, error) {
	d := newPDF("P", "Rehearsal receipt")
	d.heading(18, "REHEARSAL RECEIPT")
	d.pdf.Ln(2)

	lines := []string{
		fmt.Sprintf("Band         : %s", safe(b.BandName, "-")),
		fmt.Sprintf("Date         : %s %s-%s", safe(b.Date, "-"), safe(b.StartTime, "-"), safe(b.EndTime, "-")),
		fmt.Sprintf("Tariff       : %s", safe(q.TariffLabel, "-")),
		fmt.Sprintf("Payment      : %s", safe(paymentText(b.Payment), "-")),
		fmt.Sprintf("Booking      : %s", b.ID),
		fmt.Sprintf("Issued       : %s", utils.NowUTC().Format("2006-01-02 15:04")),
	}
	d.pdf.SetFont("Helvetica", "", 12)
	for _, l := range lines {
		d.line(7, l)
	}
	d.pdf.Ln(4)

	d.heading(13, "Rooms")
	for _, l := range q.RoomLines {
		d.line(6, fmt.Sprintf("%s, %s h: %s", l.RoomName, formatHours(l.Hours), utils.FormatHryvnia(l.Price)))
	}
	if names := table.EquipmentNames(b.Equipment); len(names) > 0 || len(b.EquipmentBookings) > 0 {
		d.pdf.Ln(2)
		d.heading(13, "Equipment")
		if len(b.EquipmentBookings) > 0 {
			for _, eb := range b.EquipmentBookings {
				item, _ := table.EquipmentItem(eb.EquipmentID)
				d.line(6, fmt.Sprintf("%s, %s h", safe(item.Name, eb.EquipmentID), formatHours(eb.Hours)))
			}
		} else {
			d.line(6, strings.Join(names, ", "))
		}
		d.line(6, "Equipment total: "+utils.FormatHryvnia(q.EquipmentPrice))
	}
	d.pdf.Ln(4)

	d.pdf.SetFont("Helvetica", "B", 14)
	d.line(8, "Total: "+utils.FormatHryvnia(b.TotalPrice))
	if strings.TrimSpace(b.Notes) != "" {
		d.pdf.Ln(2)
		d.pdf.SetFont("Helvetica", "I", 10)
		d.pdf.MultiCell(0, 6, d.text(b.Notes), "", "", false)
	}

	out, err := d.output()
	if err != nil {
		return nil, "", err
	}
	return out, fmt.Sprintf("RECEIPT_%s_%s.pdf", safeFilenamePart(b.Date), safeFilenamePart(transliterate(b.BandName))), nil
}

func paymentText(p models.Payment) string {
	label := reporting.PaymentLabel(p.Type)
	if parts, ok := p.MixedParts(); ok {
		label += fmt.Sprintf(" (%s / %s)", utils.FormatHryvnia(parts.CashAmount), utils.FormatHryvnia(parts.CardAmount))
	}
	return label
}

func formatHours(h float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.2f", h), "0"), ".")
}

func clip(s string, n int) string {
	r := []rune(s)
	if n > 3 && len(r) > n {
		return string(r[:n-3]) + "..."
	}
	return s
}

func safe(v, fallback string) string {
	v = strings.TrimSpace(v)
	if v == "" {
		return fallback
	}
	return v
}

func safeFilenamePart(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "NA"
	}
	replacer := strings.NewReplacer(" ", "_", "/", "_", "\\", "_", ":", "_", "*", "_", "?", "_", "\"", "_", "<", "_", ">", "_", "|", "_")
	s = replacer.Replace(s)
	if len(s) > 40 {
		s = s[:40]
	}
	return s
}

// Core PDF fonts have no Cyrillic glyphs.
var translit = map[rune]string{
	'а': "a", 'б': "b", 'в': "v", 'г': "h", 'ґ': "g", 'д': "d", 'е': "e", 'є': "ie",
	'ж': "zh", 'з': "z", 'и': "y", 'і': "i", 'ї': "i", 'й': "i", 'к': "k", 'л': "l",
	'м': "m", 'н': "n", 'о': "o", 'п': "p", 'р': "r", 'с': "s", 'т': "t", 'у': "u",
	'ф': "f", 'х': "kh", 'ц': "ts", 'ч': "ch", 'ш': "sh", 'щ': "shch", 'ь': "", 'ю': "iu",
	'я': "ia", 'ы': "y", 'э': "e", 'ё': "e", 'ъ': "", '’': "'",
}

func transliterate(s string) string {
	var b strings.Builder
	for _, r := range s {
		lower := []rune(strings.ToLower(string(r)))[0]
		t, ok := translit[lower]
		if !ok {
			b.WriteRune(r)
			continue
		}
		if lower != r && t != "" {
			t = strings.ToUpper(t[:1]) + t[1:]
		}
		b.WriteString(t)
	}
	return b.String()
}
