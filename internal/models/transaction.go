package models

import "github.com/shopspring/decimal"

// RecurringFrequency is how often a recurring transaction repeats.
type RecurringFrequency string

const (
	RecurringDaily   RecurringFrequency = "daily"
	RecurringWeekly  RecurringFrequency = "weekly"
	RecurringMonthly RecurringFrequency = "monthly"
	RecurringYearly  RecurringFrequency = "yearly"
)

// Transaction represents a financial transaction. Negative amounts are
// expenses, positive amounts are income.
type Transaction struct {
	Base
	UserID             string              `gorm:"type:uuid;not null;index:idx_transactions_user_date" json:"user_id"`
	AccountID          string              `gorm:"type:uuid;not null;index" json:"account_id"`
	CategoryID         *string             `gorm:"type:uuid;index" json:"category_id"`
	Amount             decimal.Decimal     `gorm:"type:decimal(12,2);not null" json:"amount"`
	Description        string              `gorm:"size:255;not null" json:"description"`
	Date               Date                `gorm:"not null;index:idx_transactions_user_date" json:"date"`
	Notes              string              `json:"notes"`
	TransferToID       *string             `gorm:"column:transfer_to_id;type:uuid" json:"transfer_to_id"`
	IsRecurring        bool                `gorm:"default:false" json:"is_recurring"`
	RecurringFrequency *RecurringFrequency `gorm:"size:20" json:"recurring_frequency"`

	// Relationships
	Account    *Account  `gorm:"foreignKey:AccountID" json:"account,omitempty"`
	Category   *Category `gorm:"foreignKey:CategoryID" json:"category,omitempty"`
	TransferTo *Account  `gorm:"foreignKey:TransferToID" json:"transfer_to,omitempty"`
}

// IsExpense reports whether the transaction spends money.
func (t *Transaction) IsExpense() bool { return t.Amount.IsNegative() }

// IsIncome reports whether the transaction brings money in.
func (t *Transaction) IsIncome() bool { return t.Amount.IsPositive() }

// IsTransfer reports whether the transaction moves money to another account.
func (t *Transaction) IsTransfer() bool { return t.TransferToID != nil }
