package models

import "github.com/shopspring/decimal"

// BudgetPeriod represents the period type for a budget
type BudgetPeriod string

const (
	BudgetPeriodMonthly   BudgetPeriod = "monthly"
	BudgetPeriodQuarterly BudgetPeriod = "quarterly"
	BudgetPeriodYearly    BudgetPeriod = "yearly"
)

// Budget caps spending in one category over an inclusive date range.
type Budget struct {
	Base
	UserID     string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_range" json:"user_id"`
	CategoryID string          `gorm:"type:uuid;not null;uniqueIndex:idx_budgets_user_category_range" json:"category_id"`
	Name       string          `gorm:"size:100;not null" json:"name"`
	Amount     decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"amount"`
	Period     BudgetPeriod    `gorm:"size:20;not null;default:'monthly'" json:"period"`
	StartDate  Date            `gorm:"not null;uniqueIndex:idx_budgets_user_category_range" json:"start_date"`
	EndDate    Date            `gorm:"not null;uniqueIndex:idx_budgets_user_category_range" json:"end_date"`
	IsActive   bool            `gorm:"not null" json:"is_active"`

	// Relationships
	Category *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
}

// Contains reports whether d falls within the budget's inclusive range.
func (b *Budget) Contains(d Date) bool {
	return !d.Before(b.StartDate) && !d.After(b.EndDate)
}
