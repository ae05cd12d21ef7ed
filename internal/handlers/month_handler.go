package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"persacc/internal/closing"
	apperrors "persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/pagination"
	"persacc/internal/services"
)

// MonthHandler handles month state, closing and snapshot requests.
type MonthHandler struct {
	monthService   services.MonthServicer
	closingService services.ClosingServicer
}

// NewMonthHandler creates a new MonthHandler.
func NewMonthHandler(monthService services.MonthServicer, closingService services.ClosingServicer) *MonthHandler {
	return &MonthHandler{monthService: monthService, closingService: closingService}
}

// CloseMonthRequest represents the user input of a month close. Amounts and
// percentages are decimal strings; percentages are fractions such as "0.20".
type CloseMonthRequest struct {
	RealBankBalance     string                `json:"real_bank_balance" binding:"required"`
	NewPayroll          string                `json:"new_payroll" binding:"required"`
	SurplusRetentionPct *string               `json:"surplus_retention_pct"`
	SalaryRetentionPct  *string               `json:"salary_retention_pct"`
	Consequences        string                `json:"consequences"`
	BalanceMethod       closing.BalanceMethod `json:"balance_method" binding:"omitempty,balance_method"`
	Notes               string                `json:"notes" binding:"max=1000"`
}

// OpenMonthRequest sets the opening balance of an open month.
type OpenMonthRequest struct {
	OpeningBalance string `json:"opening_balance" binding:"required"`
}

// NextMonthResponse names the only month that may be closed next.
type NextMonthResponse struct {
	FiscalMonth string `json:"fiscal_month"`
}

func (r CloseMonthRequest) toServiceRequest() (services.CloseRequest, error) {
	out := services.CloseRequest{
		BalanceMethod: r.BalanceMethod,
		Notes:         r.Notes,
	}
	var err error
	if out.RealBankBalance, err = parseAmount("real_bank_balance", r.RealBankBalance); err != nil {
		return out, err
	}
	if out.NewPayroll, err = parseAmount("new_payroll", r.NewPayroll); err != nil {
		return out, err
	}
	if r.Consequences != "" {
		if out.Consequences, err = parseAmount("consequences", r.Consequences); err != nil {
			return out, err
		}
	}
	if r.SurplusRetentionPct != nil {
		pct, err := parseAmount("surplus_retention_pct", *r.SurplusRetentionPct)
		if err != nil {
			return out, err
		}
		out.SurplusRetentionPct = &pct
	}
	if r.SalaryRetentionPct != nil {
		pct, err := parseAmount("salary_retention_pct", *r.SalaryRetentionPct)
		if err != nil {
			return out, err
		}
		out.SalaryRetentionPct = &pct
	}
	return out, nil
}

func bindCloseRequest(c *gin.Context) (services.CloseRequest, error) {
	var req CloseMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		return services.CloseRequest{}, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error())
	}
	return req.toServiceRequest()
}

// ListMonthStates lists every known month state
// @Summary     List month states
// @Tags        months
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {array}  models.MonthState "Month states"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months [get]
func (h *MonthHandler) ListMonthStates(c *gin.Context) {
	states, err := h.monthService.ListMonthStates()
	if err != nil {
		respondWithError(c, err)
		return
	}
	if states == nil {
		states = []models.MonthState{}
	}

	c.JSON(http.StatusOK, gin.H{"months": states})
}

// ListClosedMonths lists the closed fiscal months in ascending order
// @Summary     List closed months
// @Tags        months
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {array}  string "Closed fiscal months"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/closed [get]
func (h *MonthHandler) ListClosedMonths(c *gin.Context) {
	months, err := h.monthService.ListClosedMonths()
	if err != nil {
		respondWithError(c, err)
		return
	}
	if months == nil {
		months = []string{}
	}

	c.JSON(http.StatusOK, gin.H{"months": months})
}

// NextClosableMonth returns the month the next close must target
// @Summary     Next closable month
// @Tags        months
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} NextMonthResponse "Next closable month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/next [get]
func (h *MonthHandler) NextClosableMonth(c *gin.Context) {
	month, err := h.closingService.NextClosableMonth()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, NextMonthResponse{FiscalMonth: month})
}

// GetMonthState returns the state of one fiscal month
// @Summary     Get month state
// @Tags        months
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month path string true "Fiscal month (YYYY-MM)"
// @Success     200 {object} models.MonthState "Month state"
// @Failure     400 {object} ErrorResponse "Invalid fiscal month"
// @Failure     404 {object} ErrorResponse "Month not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/{month} [get]
func (h *MonthHandler) GetMonthState(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, err := h.monthService.GetMonthState(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": state})
}

// MonthClosedResponse reports whether a fiscal month is locked.
type MonthClosedResponse struct {
	FiscalMonth string `json:"fiscal_month"`
	Closed      bool   `json:"closed"`
}

// IsMonthClosed reports whether a month falls inside the closed prefix of the ledger
// @Summary     Is a month closed
// @Tags        months
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month path string true "Fiscal month (YYYY-MM)"
// @Success     200 {object} MonthClosedResponse "Closed flag"
// @Failure     400 {object} ErrorResponse "Invalid fiscal month"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/{month}/closed [get]
func (h *MonthHandler) IsMonthClosed(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	closed, err := h.monthService.IsMonthClosed(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, MonthClosedResponse{FiscalMonth: month, Closed: closed})
}

// OpenMonth sets the opening balance of an open month, creating it if needed
// @Summary     Open a month
// @Tags        months
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month   path string           true "Fiscal month (YYYY-MM)"
// @Param       request body OpenMonthRequest true "Opening balance"
// @Success     200 {object} models.MonthState "Month state"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Month closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/{month}/open [put]
func (h *MonthHandler) OpenMonth(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req OpenMonthRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	opening, err := parseAmount("opening_balance", req.OpeningBalance)
	if err != nil {
		respondWithError(c, err)
		return
	}

	state, err := h.monthService.OpenMonth(month, opening)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"month": state})
}

// PreviewClose computes a month close without writing anything
// @Summary     Preview a month close
// @Tags        months
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month   path string            true "Fiscal month (YYYY-MM)"
// @Param       request body CloseMonthRequest true "Close input"
// @Success     200 {object} services.ClosePreview "Close preview"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Month already closed or out of sequence"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/{month}/preview [post]
func (h *MonthHandler) PreviewClose(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	req, err := bindCloseRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	preview, err := h.closingService.PreviewClose(month, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, preview)
}

// CloseMonth closes a fiscal month
// @Summary     Close a month
// @Description Close the next closable month: books the automatic movements, freezes the month, opens the next one and records a snapshot.
// @Tags        months
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month   path string            true "Fiscal month (YYYY-MM)"
// @Param       request body CloseMonthRequest true "Close input"
// @Success     201 {object} models.Snapshot "Close snapshot"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Month already closed or out of sequence"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /months/{month}/close [post]
func (h *MonthHandler) CloseMonth(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	req, err := bindCloseRequest(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.closingService.CloseMonth(month, req)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"snapshot": snapshot})
}

// ListSnapshots lists close snapshots, newest first
// @Summary     List snapshots
// @Tags        snapshots
// @Produce     json
// @Security    ApiKeyAuth
// @Param       year      query int false "Calendar year of the closed month"
// @Param       page      query int false "Page number (default 1)"
// @Param       page_size query int false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Snapshot] "Paginated snapshots"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots [get]
func (h *MonthHandler) ListSnapshots(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	year := 0
	if v := c.Query("year"); v != "" {
		y, err := parseYear(v)
		if err != nil {
			respondWithError(c, err)
			return
		}
		year = y
	}

	result, err := h.monthService.ListSnapshots(year, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetLatestSnapshot returns the most recent close snapshot
// @Summary     Latest snapshot
// @Tags        snapshots
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {object} models.Snapshot "Snapshot"
// @Failure     404 {object} ErrorResponse "No snapshot yet"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/latest [get]
func (h *MonthHandler) GetLatestSnapshot(c *gin.Context) {
	snapshot, err := h.monthService.GetLatestSnapshot()
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}

// GetSnapshot returns the snapshot of one closed month
// @Summary     Snapshot of a month
// @Tags        snapshots
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month path string true "Fiscal month (YYYY-MM)"
// @Success     200 {object} models.Snapshot "Snapshot"
// @Failure     400 {object} ErrorResponse "Invalid fiscal month"
// @Failure     404 {object} ErrorResponse "Snapshot not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /snapshots/{month} [get]
func (h *MonthHandler) GetSnapshot(c *gin.Context) {
	month, err := parseMonthParam(c, "month")
	if err != nil {
		respondWithError(c, err)
		return
	}

	snapshot, err := h.monthService.GetSnapshot(month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"snapshot": snapshot})
}
