// Package validator provides custom validation functions for Gin's binding engine.
package validator

import (
	"slices"

	"prism/internal/finance"
	"prism/internal/models"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// Register registers all custom validators with the Gin binding engine.
func Register() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("hex_color", validateHexColor)
		_ = v.RegisterValidation("account_type", validateAccountType)
		_ = v.RegisterValidation("category_type", validateCategoryType)
		_ = v.RegisterValidation("budget_period", validateBudgetPeriod)
		_ = v.RegisterValidation("goal_type", validateGoalType)
		_ = v.RegisterValidation("recurring_frequency", validateRecurringFrequency)
	}
}

func validateHexColor(fl validator.FieldLevel) bool {
	return finance.IsHexColor(fl.Field().String())
}

func validateAccountType(fl validator.FieldLevel) bool {
	return slices.Contains(models.AccountTypes, models.AccountType(fl.Field().String()))
}

func validateCategoryType(fl validator.FieldLevel) bool {
	switch models.CategoryType(fl.Field().String()) {
	case models.CategoryTypeIncome, models.CategoryTypeExpense:
		return true
	}
	return false
}

func validateBudgetPeriod(fl validator.FieldLevel) bool {
	switch models.BudgetPeriod(fl.Field().String()) {
	case models.BudgetPeriodMonthly, models.BudgetPeriodQuarterly, models.BudgetPeriodYearly:
		return true
	}
	return false
}

func validateGoalType(fl validator.FieldLevel) bool {
	return slices.Contains(models.GoalTypes, models.GoalType(fl.Field().String()))
}

func validateRecurringFrequency(fl validator.FieldLevel) bool {
	switch models.RecurringFrequency(fl.Field().String()) {
	case models.RecurringDaily, models.RecurringWeekly, models.RecurringMonthly, models.RecurringYearly:
		return true
	}
	return false
}
