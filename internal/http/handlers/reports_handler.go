package handlers

import (
	"bytes"
	"net/http"

	"studio/internal/http/middleware"
	"studio/internal/reporting"
	"studio/internal/services"
	"studio/internal/utils"

	"github.com/gin-gonic/gin"
)

const allMonths = "all"

// reportFilter binds the report query. Without a month the current one is
// used; month=all disables the month bound.
func reportFilter(c *gin.Context) (reporting.Filter, bool) {
	var f reporting.Filter
	if err := c.ShouldBindQuery(&f); err != nil {
		respondError(c, http.StatusBadRequest, "invalid_query", "invalid query", err.Error())
		return f, false
	}
	switch f.Month {
	case "":
		f.Month = utils.CurrentMonth(current().location())
	case allMonths:
		f.Month = ""
	}
	return f, true
}

// GET /api/reports
func ListReports(c *gin.Context) {
	f, ok := reportFilter(c)
	if !ok {
		return
	}
	entries, err := reportService(c).List(c.Request.Context(), viewer(c), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"items": entries, "month": f.Month})
}

// POST /api/reports creates a booking and its report entry in one step.
func CreateReportEntry(c *gin.Context) {
	var in services.BookingInput
	if !BindJSONOrError(c, &in) {
		return
	}
	b, entry, warnings, err := reportService(c).CreateAndReport(c.Request.Context(), middleware.CurrentActor(c), in)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"booking": b, "entry": entry, "warnings": warnings})
}

// DELETE /api/reports/:id
func DeleteReportEntry(c *gin.Context) {
	entry, err := reportService(c).RemoveFromReport(c.Request.Context(), middleware.CurrentActor(c), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"removed": entry.ID, "bookingId": entry.BookingID})
}

// GET /api/reports/stats
func ReportStats(c *gin.Context) {
	f, ok := reportFilter(c)
	if !ok {
		return
	}
	st, err := reportService(c).Statistics(c.Request.Context(), viewer(c), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, st)
}

// GET /api/reports/export.csv
func ExportReportCSV(c *gin.Context) {
	f, ok := reportFilter(c)
	if !ok {
		return
	}
	var buf bytes.Buffer
	if err := reportService(c).ExportCSV(c.Request.Context(), &buf, viewer(c), f); err != nil {
		RespondDomainError(c, err)
		return
	}
	name := "report.csv"
	if f.Month != "" {
		name = "report_" + f.Month + ".csv"
	}
	c.Header("Content-Disposition", `attachment; filename="`+name+`"`)
	c.Data(http.StatusOK, "text/csv; charset=utf-8", buf.Bytes())
}

// GET /api/reports/export.pdf
func ExportReportPDF(c *gin.Context) {
	f, ok := reportFilter(c)
	if !ok {
		return
	}
	pdf, filename, err := docsService(c).MonthlyReport(c.Request.Context(), viewer(c), f)
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// GET /api/bookings/:id/receipt.pdf
func BookingReceiptPDF(c *gin.Context) {
	pdf, filename, err := docsService(c).BookingReceipt(c.Request.Context(), c.Param("id"))
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.Header("Content-Disposition", `inline; filename="`+filename+`"`)
	c.Data(http.StatusOK, "application/pdf", pdf)
}

// POST /api/reports/repair
func RepairReportLinks(c *gin.Context) {
	res, err := reportService(c).RepairLinks(c.Request.Context())
	if err != nil {
		RespondDomainError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}
