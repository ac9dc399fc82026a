package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// GoalType represents what a goal is saving toward
type GoalType string

const (
	GoalTypeSavings    GoalType = "savings"
	GoalTypeDebt       GoalType = "debt"
	GoalTypeInvestment GoalType = "investment"
	GoalTypePurchase   GoalType = "purchase"
	GoalTypeEmergency  GoalType = "emergency"
	GoalTypeOther      GoalType = "other"
)

// GoalTypes lists every valid goal type in display order.
var GoalTypes = []GoalType{
	GoalTypeSavings, GoalTypeDebt, GoalTypeInvestment, GoalTypePurchase,
	GoalTypeEmergency, GoalTypeOther,
}

// Goal tracks progress toward a target amount. IsCompleted and CompletedAt
// are derived from the amounts; see finance.Reconcile.
type Goal struct {
	Base
	UserID          string          `gorm:"type:uuid;not null;index" json:"user_id"`
	Name            string          `gorm:"size:100;not null" json:"name"`
	Description     string          `json:"description"`
	Type            GoalType        `gorm:"size:20;not null;default:'savings'" json:"goal_type"`
	TargetAmount    decimal.Decimal `gorm:"type:decimal(12,2);not null" json:"target_amount"`
	CurrentAmount   decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"current_amount"`
	TargetDate      *Date           `json:"target_date"`
	LinkedAccountID *string         `gorm:"type:uuid" json:"linked_account_id"`
	IsActive        bool            `gorm:"not null" json:"is_active"`
	IsCompleted     bool            `gorm:"default:false" json:"is_completed"`
	CompletedAt     *time.Time      `json:"completed_at"`

	// Relationships
	LinkedAccount *Account `gorm:"foreignKey:LinkedAccountID" json:"linked_account,omitempty"`
}
