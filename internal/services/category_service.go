package services

import (
	"errors"
	"strings"

	"gorm.io/gorm"

	apperrors "persacc/internal/errors"
	"persacc/internal/models"
)

// categoryService handles category master data.
type categoryService struct {
	db *gorm.DB
}

// NewCategoryService creates a new CategoryServicer.
func NewCategoryService(db *gorm.DB) CategoryServicer {
	return &categoryService{db: db}
}

// CreateCategory creates a new active category for one movement type.
func (s *categoryService) CreateCategory(name string, movementType models.MovementType) (*models.Category, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperrors.WithMessage(apperrors.ErrInvalidInput, "category name is required")
	}
	if !movementType.Valid() {
		return nil, apperrors.ErrInvalidMovementType
	}

	if err := s.checkNameFree(s.db, name, ""); err != nil {
		return nil, err
	}

	category := &models.Category{
		Name:         name,
		MovementType: movementType,
		Active:       true,
	}
	if err := s.db.Create(category).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return category, nil
}

// ListCategories lists categories ordered by name, with the number of
// movements booked against each one.
func (s *categoryService) ListCategories(movementType *models.MovementType, includeInactive bool) ([]models.CategoryUsage, error) {
	q := s.db.Model(&models.Category{}).
		Select("categories.*, COUNT(movements.id) AS movement_count").
		Joins("LEFT JOIN movements ON movements.category_id = categories.id").
		Group("categories.id").
		Order("categories.name")

	if movementType != nil {
		if !movementType.Valid() {
			return nil, apperrors.ErrInvalidMovementType
		}
		q = q.Where("categories.movement_type = ?", *movementType)
	}
	if !includeInactive {
		q = q.Where("categories.active = ?", true)
	}

	var categories []models.CategoryUsage
	if err := q.Scan(&categories).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return categories, nil
}

// GetCategoryByID retrieves a category by ID
func (s *categoryService) GetCategoryByID(id string) (*models.Category, error) {
	return findCategory(s.db, id)
}

// UpdateCategory renames, retypes or (de)activates a category. The movement
// type can only change while no movement references the category.
func (s *categoryService) UpdateCategory(id string, name string, movementType *models.MovementType, active *bool) (*models.Category, error) {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return nil, err
	}

	updates := make(map[string]interface{})

	if name = strings.TrimSpace(name); name != "" && name != category.Name {
		if err := s.checkNameFree(s.db, name, category.ID); err != nil {
			return nil, err
		}
		updates["name"] = name
	}

	if movementType != nil && *movementType != category.MovementType {
		if !movementType.Valid() {
			return nil, apperrors.ErrInvalidMovementType
		}
		used, err := countMovements(s.db, category.ID)
		if err != nil {
			return nil, err
		}
		if used > 0 {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryInUse, "cannot change the movement type of a category in use")
		}
		updates["movement_type"] = *movementType
	}

	if active != nil && *active != category.Active {
		updates["active"] = *active
	}

	if len(updates) > 0 {
		if err := s.db.Model(category).Updates(updates).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
	}
	return category, nil
}

// DeleteCategory removes an unused category. A category that movements
// still reference is deactivated instead so history keeps its label.
func (s *categoryService) DeleteCategory(id string) (bool, error) {
	category, err := s.GetCategoryByID(id)
	if err != nil {
		return false, err
	}

	used, err := countMovements(s.db, category.ID)
	if err != nil {
		return false, err
	}

	if used > 0 {
		if err := s.db.Model(category).Update("active", false).Error; err != nil {
			return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return true, nil
	}

	if err := s.db.Delete(category).Error; err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return false, nil
}

// EnsureCategory returns the category called name, ignoring case, creating
// it on tx when missing. An inactive match is reactivated; a match of another movement
// type is an error.
func (s *categoryService) EnsureCategory(tx *gorm.DB, name string, movementType models.MovementType) (*models.Category, error) {
	var category models.Category
	err := tx.Where("LOWER(name) = LOWER(?)", name).First(&category).Error
	switch {
	case err == nil:
		if category.MovementType != movementType {
			return nil, apperrors.WithMessage(apperrors.ErrCategoryTypeMismatch,
				"category "+name+" is not a "+string(movementType)+" category")
		}
		if !category.Active {
			if err := tx.Model(&category).Update("active", true).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
		}
		return &category, nil
	case errors.Is(err, gorm.ErrRecordNotFound):
		category = models.Category{Name: name, MovementType: movementType, Active: true}
		if err := tx.Create(&category).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		return &category, nil
	default:
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
}

// checkNameFree fails when another category already uses name, ignoring case.
func (s *categoryService) checkNameFree(db *gorm.DB, name, exceptID string) error {
	q := db.Model(&models.Category{}).Where("LOWER(name) = LOWER(?)", name)
	if exceptID != "" {
		q = q.Where("id <> ?", exceptID)
	}
	var count int64
	if err := q.Count(&count).Error; err != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return apperrors.ErrDuplicateCategory
	}
	return nil
}

func findCategory(db *gorm.DB, id string) (*models.Category, error) {
	var category models.Category
	if err := db.Where("id = ?", id).First(&category).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrCategoryNotFound
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &category, nil
}

func countMovements(db *gorm.DB, categoryID string) (int64, error) {
	var count int64
	if err := db.Model(&models.Movement{}).Where("category_id = ?", categoryID).Count(&count).Error; err != nil {
		return 0, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return count, nil
}
