package reporting

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"studio/internal/domain/models"
	"studio/internal/pricing"
)

func sampleEntries() []models.ReportEntry {
	base := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	return []models.ReportEntry{
		{
			ID: "r1", BandName: "Kozak System", Date: "2025-03-05", RoomID: "standart",
			TotalHours: 2, RoomPrice: 460, TotalPrice: 460, Payment: models.Cash(),
			CreatedBy: "anna@studio.ua", CreatedAt: base,
		},
		{
			ID: "r2", BandName: "Dakh Daughters", Date: "2025-03-05", RoomID: "main",
			RoomLines: []models.RoomLine{
				{RoomID: "main", Hours: 2, Price: 540},
				{RoomID: "standart", Hours: 1, Price: 230},
			},
			TotalHours: 3, RoomPrice: 770, EquipmentPrice: 200, TotalPrice: 970,
			Payment: models.Mixed(500, 470), IsResident: true, Equipment: []string{"guitar"},
			CreatedBy: "bob@studio.ua", CreatedAt: base.Add(time.Hour),
		},
		{
			ID: "r3", BandName: "Okean", Date: "2025-03-20", RoomID: "main",
			TotalHours: 1, RoomPrice: 330, TotalPrice: 330, Payment: models.Card(),
			CreatedBy: "anna@studio.ua", CreatedAt: base,
		},
		{
			ID: "r4", BandName: "Other month", Date: "2025-02-20", RoomID: "main",
			TotalHours: 1, TotalPrice: 330, Payment: models.Card(),
			CreatedBy: "anna@studio.ua", CreatedAt: base,
		},
	}
}

func TestApplyFiltersAndSorts(t *testing.T) {
	got := Apply(sampleEntries(), Filter{Month: "2025-03"})
	if len(got) != 3 {
		t.Fatalf("expected 3 entries in March, got %d", len(got))
	}
	if got[0].ID != "r3" || got[1].ID != "r2" || got[2].ID != "r1" {
		t.Fatalf("unexpected order %s %s %s", got[0].ID, got[1].ID, got[2].ID)
	}

	byRoom := Apply(sampleEntries(), Filter{Month: "2025-03", RoomID: "standart"})
	if len(byRoom) != 2 {
		t.Fatalf("room filter should match secondary rooms too, got %d", len(byRoom))
	}
	if n := len(Apply(sampleEntries(), Filter{PaymentType: models.PaymentCard})); n != 2 {
		t.Fatalf("expected 2 card entries got %d", n)
	}
	if n := len(Apply(sampleEntries(), Filter{Search: "dakh"})); n != 1 {
		t.Fatalf("search should be case-insensitive, got %d", n)
	}
}

func TestVisibleLimitsAdminsToOwnEntries(t *testing.T) {
	own := Visible(sampleEntries(), Viewer{Email: "ANNA@studio.ua"})
	if len(own) != 3 {
		t.Fatalf("expected 3 entries for anna, got %d", len(own))
	}
	if all := Visible(sampleEntries(), Viewer{Email: "anna@studio.ua", Owner: true}); len(all) != 4 {
		t.Fatalf("owner should see all")
	}
}

func TestStatisticsOwnerView(t *testing.T) {
	entries := Apply(sampleEntries(), Filter{Month: "2025-03"})
	st := Statistics(entries, pricing.DefaultRooms(), Viewer{Email: "owner@studio.ua", Owner: true})

	if st.TotalRevenue != 1760 || st.TotalHours != 6 || st.TotalBookings != 3 || st.ResidentBookings != 1 {
		t.Fatalf("unexpected totals %+v", st)
	}
	// primary-room attribution: r2 counts fully toward main
	if st.RevenueByRoom[0].RoomID != "standart" || st.RevenueByRoom[0].Revenue != 460 {
		t.Fatalf("unexpected standart revenue %+v", st.RevenueByRoom[0])
	}
	if st.RevenueByRoom[1].Revenue != 1300 {
		t.Fatalf("unexpected main revenue %+v", st.RevenueByRoom[1])
	}
	// shares: standart gets its 230 line, main keeps 540 + equipment 200
	if st.RoomShares[0].Revenue != 690 || st.RoomShares[1].Revenue != 1070 {
		t.Fatalf("unexpected shares %+v", st.RoomShares)
	}
	if st.RevenueByPaymentType[2].Type != models.PaymentMixed || st.RevenueByPaymentType[2].Count != 1 {
		t.Fatalf("unexpected payment grouping %+v", st.RevenueByPaymentType)
	}
	if len(st.SalaryByAdmin) != 2 {
		t.Fatalf("expected salary for two admins, got %d", len(st.SalaryByAdmin))
	}
}

func TestStatisticsAdminView(t *testing.T) {
	v := Viewer{Email: "anna@studio.ua"}
	entries := Visible(Apply(sampleEntries(), Filter{Month: "2025-03"}), v)
	st := Statistics(entries, pricing.DefaultRooms(), v)
	if len(st.SalaryByAdmin) != 0 {
		t.Fatalf("admin must not see other salaries")
	}
	if st.Salary.FirstHalf.Revenue != 460 || st.Salary.SecondHalf.Revenue != 330 {
		t.Fatalf("unexpected admin salary %+v", st.Salary)
	}
}

func TestExportCSVOwnerAndAdminColumns(t *testing.T) {
	entries := Apply(sampleEntries(), Filter{Month: "2025-03"})
	var buf bytes.Buffer
	if err := ExportCSV(&buf, entries, pricing.DefaultPriceTable(), true); err != nil {
		t.Fatalf("export: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected header + 3 rows, got %d", len(lines))
	}
	if !strings.HasSuffix(lines[0], "Тип оплати,Сума") {
		t.Fatalf("owner header must end with total column: %q", lines[0])
	}
	if lines[2] != "2025-03-05,Dakh Daughters,Main,,,3,Так,Електро-гітара,Готівка + Картка,970" {
		t.Fatalf("unexpected row %q", lines[2])
	}
	if !strings.Contains(lines[3], ",Ні,-,Готівка,") {
		t.Fatalf("expected no-equipment marker, got %q", lines[3])
	}

	buf.Reset()
	if err := ExportCSV(&buf, entries, pricing.DefaultPriceTable(), false); err != nil {
		t.Fatalf("export: %v", err)
	}
	if strings.Contains(buf.String(), "Сума") || strings.Contains(buf.String(), "970") {
		t.Fatalf("admin export must not include totals")
	}
}
