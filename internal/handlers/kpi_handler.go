package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"persacc/internal/services"
)

// KPIHandler serves period summaries.
type KPIHandler struct {
	kpiService services.KPIServicer
}

// NewKPIHandler creates a new KPIHandler.
func NewKPIHandler(kpiService services.KPIServicer) *KPIHandler {
	return &KPIHandler{kpiService: kpiService}
}

// MonthKPIs returns the totals of one fiscal month
// @Summary     Monthly KPIs
// @Tags        kpis
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month path string true "Fiscal month (YYYY-MM)"
// @Success     200 {object} kpi.MonthSummary "Month summary"
// @Failure     400 {object} ErrorResponse "Invalid fiscal month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /kpis/months/{month} [get]
func (h *KPIHandler) MonthKPIs(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.kpiService.MonthKPIs(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}

// YearKPIs returns the yearly summary
// @Summary     Yearly KPIs
// @Tags        kpis
// @Produce     json
// @Security    ApiKeyAuth
// @Param       year path int true "Calendar year"
// @Success     200 {object} kpi.YearSummary "Year summary"
// @Failure     400 {object} ErrorResponse "Invalid year"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /kpis/years/{year} [get]
func (h *KPIHandler) YearKPIs(c *gin.Context) {
	year, err := parseYear(c.Param("year"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	summary, err := h.kpiService.YearKPIs(year)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, summary)
}
