// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"persacc/internal/closing"
	"persacc/internal/fiscal"
	"persacc/internal/models"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("movement_type", validateMovementType)
		_ = v.RegisterValidation("relevance_code", validateRelevanceCode)
		_ = v.RegisterValidation("fiscal_month", validateFiscalMonth)
		_ = v.RegisterValidation("balance_method", validateBalanceMethod)
	}
}

func validateMovementType(fl validator.FieldLevel) bool {
	return models.MovementType(fl.Field().String()).Valid()
}

func validateRelevanceCode(fl validator.FieldLevel) bool {
	return models.RelevanceCode(fl.Field().String()).Valid()
}

func validateFiscalMonth(fl validator.FieldLevel) bool {
	return fiscal.ValidateMonth(fl.Field().String()) == nil
}

func validateBalanceMethod(fl validator.FieldLevel) bool {
	return closing.BalanceMethod(fl.Field().String()).Valid()
}
