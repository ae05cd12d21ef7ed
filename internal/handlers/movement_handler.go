package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"

	apperrors "persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/pagination"
	"persacc/internal/services"
)

// MovementHandler handles movement-related requests.
type MovementHandler struct {
	movementService services.MovementServicer
}

// NewMovementHandler creates a new MovementHandler.
func NewMovementHandler(movementService services.MovementServicer) *MovementHandler {
	return &MovementHandler{movementService: movementService}
}

// CreateMovementRequest represents the request payload for recording a movement.
// Amounts are decimal strings. The accounting date and fiscal month are derived.
type CreateMovementRequest struct {
	RealDate      string                `json:"real_date"`
	MovementType  models.MovementType   `json:"movement_type" binding:"required,movement_type"`
	CategoryID    string                `json:"category_id" binding:"required"`
	RelevanceCode *models.RelevanceCode `json:"relevance_code" binding:"omitempty,relevance_code"`
	Concept       string                `json:"concept" binding:"max=500"`
	Amount        string                `json:"amount" binding:"required"`
	LiquidityFlag bool                  `json:"liquidity_flag"`
}

// UpdateMovementRequest represents the request payload for editing a movement.
type UpdateMovementRequest struct {
	RealDate      *string               `json:"real_date"`
	MovementType  *models.MovementType  `json:"movement_type" binding:"omitempty,movement_type"`
	CategoryID    *string               `json:"category_id"`
	RelevanceCode *models.RelevanceCode `json:"relevance_code" binding:"omitempty,relevance_code"`
	Concept       *string               `json:"concept" binding:"omitempty,max=500"`
	Amount        *string               `json:"amount"`
	LiquidityFlag *bool                 `json:"liquidity_flag"`
}

// CreateMovement handles recording a new movement
// @Summary     Record a movement
// @Description Record a movement. The accounting date and fiscal month are derived from the real date.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateMovementRequest true "Movement details"
// @Success     201 {object} models.Movement "Movement recorded"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Fiscal month closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements [post]
func (h *MovementHandler) CreateMovement(c *gin.Context) {
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	amount, err := parseAmount("amount", req.Amount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	in := services.MovementInput{
		MovementType:  req.MovementType,
		CategoryID:    req.CategoryID,
		RelevanceCode: req.RelevanceCode,
		Concept:       req.Concept,
		Amount:        amount,
		LiquidityFlag: req.LiquidityFlag,
	}
	if req.RealDate != "" {
		in.RealDate, err = parseDate(req.RealDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
	}

	movement, err := h.movementService.InsertMovement(in)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"movement": movement})
}

// GetMovementByID handles the retrieval of a single movement
// @Summary     Get movement by ID
// @Tags        movements
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} models.Movement "Movement details"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id} [get]
func (h *MovementHandler) GetMovementByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	movement, err := h.movementService.GetMovementByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// UpdateMovement handles editing a movement
// @Summary     Update movement
// @Description Edit a movement of an open month. Derived dates are recomputed.
// @Tags        movements
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string                true "Movement ID"
// @Param       request body UpdateMovementRequest true "Fields to change"
// @Success     200 {object} models.Movement "Updated movement"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     409 {object} ErrorResponse "Fiscal month closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id} [put]
func (h *MovementHandler) UpdateMovement(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	upd := services.MovementUpdate{
		MovementType:  req.MovementType,
		CategoryID:    req.CategoryID,
		RelevanceCode: req.RelevanceCode,
		Concept:       req.Concept,
		LiquidityFlag: req.LiquidityFlag,
	}
	if req.RealDate != nil {
		d, err := parseDate(*req.RealDate)
		if err != nil {
			respondWithError(c, err)
			return
		}
		upd.RealDate = &d
	}
	if req.Amount != nil {
		amount, err := parseAmount("amount", *req.Amount)
		if err != nil {
			respondWithError(c, err)
			return
		}
		upd.Amount = &amount
	}

	movement, err := h.movementService.UpdateMovement(id, upd)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movement": movement})
}

// DeleteMovement handles deleting a movement
// @Summary     Delete movement
// @Tags        movements
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Movement ID"
// @Success     200 {object} map[string]string "Movement deleted"
// @Failure     404 {object} ErrorResponse "Movement not found"
// @Failure     409 {object} ErrorResponse "Fiscal month closed"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/{id} [delete]
func (h *MovementHandler) DeleteMovement(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.movementService.DeleteMovement(id); err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Movement deleted successfully"})
}

// ListMovements handles listing the movements of a period
// @Summary     List movements of a period
// @Description List every movement of one fiscal month or one calendar year, in accounting date order.
// @Tags        movements
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month query string false "Fiscal month (YYYY-MM)"
// @Param       year  query int    false "Calendar year"
// @Success     200 {array}  models.Movement "Movements"
// @Failure     400 {object} ErrorResponse "Invalid period"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements [get]
func (h *MovementHandler) ListMovements(c *gin.Context) {
	period, err := parsePeriod(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	movements, err := h.movementService.ListMovements(period)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"movements": movements})
}

// SearchMovements handles the paginated movement search
// @Summary     Search movements
// @Tags        movements
// @Produce     json
// @Security    ApiKeyAuth
// @Param       month       query string false "Fiscal month (YYYY-MM)"
// @Param       year        query int    false "Calendar year"
// @Param       type        query string false "Movement type"
// @Param       category_id query string false "Category ID"
// @Param       source      query string false "MANUAL or AUTO_CLOSE"
// @Param       q           query string false "Text contained in the concept"
// @Param       min_amount  query string false "Minimum amount"
// @Param       max_amount  query string false "Maximum amount"
// @Param       page        query int    false "Page number (default 1)"
// @Param       page_size   query int    false "Items per page (default 20, max 100)"
// @Success     200 {object} pagination.PageResponse[models.Movement] "Paginated movements"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/search [get]
func (h *MovementHandler) SearchMovements(c *gin.Context) {
	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter, err := parseMovementFilter(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, err := h.movementService.SearchMovements(filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// AvailableYears handles listing the years with recorded movements
// @Summary     Years with movements
// @Tags        movements
// @Produce     json
// @Security    ApiKeyAuth
// @Success     200 {array}  int "Years, newest first"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /movements/years [get]
func (h *MovementHandler) AvailableYears(c *gin.Context) {
	years, err := h.movementService.AvailableYears()
	if err != nil {
		respondWithError(c, err)
		return
	}
	if years == nil {
		years = []int{}
	}

	c.JSON(http.StatusOK, gin.H{"years": years})
}

// parsePeriod reads the month or year query parameter. Neither means the
// current fiscal month.
func parsePeriod(c *gin.Context) (services.Period, error) {
	var period services.Period
	month, year := c.Query("month"), c.Query("year")
	if month != "" && year != "" {
		return period, apperrors.WithMessage(apperrors.ErrInvalidInput, "use either month or year, not both")
	}
	if year != "" {
		y, err := parseYear(year)
		if err != nil {
			return period, err
		}
		period.Year = y
		return period, nil
	}
	if month == "" {
		month = time.Now().Format("2006-01")
	}
	period.FiscalMonth = month
	return period, nil
}

func parseMovementFilter(c *gin.Context) (services.MovementFilter, error) {
	var filter services.MovementFilter

	month, year := c.Query("month"), c.Query("year")
	if month != "" && year != "" {
		return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "use either month or year, not both")
	}
	filter.Period.FiscalMonth = month
	if year != "" {
		y, err := parseYear(year)
		if err != nil {
			return filter, err
		}
		filter.Period.Year = y
	}

	if v := c.Query("type"); v != "" {
		mt := models.MovementType(strings.ToUpper(v))
		if !mt.Valid() {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidMovementType, "invalid type "+v)
		}
		filter.MovementType = &mt
	}

	if v := c.Query("category_id"); v != "" {
		filter.CategoryID = &v
	}

	if v := c.Query("source"); v != "" {
		src := models.MovementSource(strings.ToUpper(v))
		if src != models.SourceManual && src != models.SourceAutoClose {
			return filter, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid source, must be MANUAL or AUTO_CLOSE")
		}
		filter.Source = &src
	}

	filter.Query = strings.TrimSpace(c.Query("q"))

	for _, bound := range []struct {
		name string
		dst  **decimal.Decimal
	}{
		{"min_amount", &filter.MinAmount},
		{"max_amount", &filter.MaxAmount},
	} {
		if v := c.Query(bound.name); v != "" {
			amt, err := parseAmount(bound.name, v)
			if err != nil {
				return filter, err
			}
			*bound.dst = &amt
		}
	}

	return filter, nil
}
