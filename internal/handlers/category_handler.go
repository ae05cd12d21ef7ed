package handlers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	apperrors "persacc/internal/errors"
	"persacc/internal/models"
	"persacc/internal/services"
)

// CategoryHandler handles category-related requests
type CategoryHandler struct {
	categoryService services.CategoryServicer
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService services.CategoryServicer) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the request payload for creating a category
type CreateCategoryRequest struct {
	Name         string              `json:"name" binding:"required,max=100"`
	MovementType models.MovementType `json:"movement_type" binding:"required,movement_type"`
}

// UpdateCategoryRequest represents the request payload for updating a category
type UpdateCategoryRequest struct {
	Name         string               `json:"name" binding:"max=100"`
	MovementType *models.MovementType `json:"movement_type" binding:"omitempty,movement_type"`
	Active       *bool                `json:"active"`
}

// CreateCategory handles the creation of a new category
// @Summary     Create a category
// @Description Create a category master valid for one movement type
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       request body CreateCategoryRequest true "Category details"
// @Success     201 {object} models.Category "Category created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     409 {object} ErrorResponse "Duplicate category"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [post]
func (h *CategoryHandler) CreateCategory(c *gin.Context) {
	var req CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.CreateCategory(req.Name, req.MovementType)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{"category": category})
}

// ListCategories handles listing categories with their usage count
// @Summary     List categories
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       type             query string false "Filter by movement type"
// @Param       include_inactive query bool   false "Include inactive categories"
// @Success     200 {array}  models.CategoryUsage "Categories"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories [get]
func (h *CategoryHandler) ListCategories(c *gin.Context) {
	var movementType *models.MovementType
	if v := c.Query("type"); v != "" {
		mt := models.MovementType(strings.ToUpper(v))
		if !mt.Valid() {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidMovementType, "invalid type "+v))
			return
		}
		movementType = &mt
	}

	includeInactive := false
	if v := c.Query("include_inactive"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "invalid include_inactive"))
			return
		}
		includeInactive = b
	}

	categories, err := h.categoryService.ListCategories(movementType, includeInactive)
	if err != nil {
		respondWithError(c, err)
		return
	}
	if categories == nil {
		categories = []models.CategoryUsage{}
	}

	c.JSON(http.StatusOK, gin.H{"categories": categories})
}

// GetCategoryByID handles the retrieval of a specific category
// @Summary     Get category by ID
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} models.Category "Category details"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [get]
func (h *CategoryHandler) GetCategoryByID(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	category, err := h.categoryService.GetCategoryByID(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// UpdateCategory handles the update of a category
// @Summary     Update category
// @Description Rename, retype or toggle a category. Used categories cannot change type.
// @Tags        categories
// @Accept      json
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id      path string                true "Category ID"
// @Param       request body UpdateCategoryRequest true "Fields to change"
// @Success     200 {object} models.Category "Updated category"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     409 {object} ErrorResponse "Duplicate name or category in use"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [put]
func (h *CategoryHandler) UpdateCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	category, err := h.categoryService.UpdateCategory(id, req.Name, req.MovementType, req.Active)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"category": category})
}

// DeleteCategory handles the deletion of a category
// @Summary     Delete category
// @Description Delete an unused category. A category with movements is deactivated instead.
// @Tags        categories
// @Produce     json
// @Security    ApiKeyAuth
// @Param       id path string true "Category ID"
// @Success     200 {object} map[string]interface{} "Category deleted or deactivated"
// @Failure     404 {object} ErrorResponse "Category not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /categories/{id} [delete]
func (h *CategoryHandler) DeleteCategory(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	deactivated, err := h.categoryService.DeleteCategory(id)
	if err != nil {
		respondWithError(c, err)
		return
	}

	message := "Category deleted successfully"
	if deactivated {
		message = "Category is in use and was deactivated"
	}
	c.JSON(http.StatusOK, gin.H{"message": message, "deactivated": deactivated})
}
