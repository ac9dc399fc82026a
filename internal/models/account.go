package models

import "github.com/shopspring/decimal"

// AccountType represents the type of account
type AccountType string

const (
	AccountTypeChecking   AccountType = "checking"
	AccountTypeSavings    AccountType = "savings"
	AccountTypeCredit     AccountType = "credit"
	AccountTypeInvestment AccountType = "investment"
	AccountTypeCash       AccountType = "cash"
	AccountTypeLoan       AccountType = "loan"
	AccountTypeOther      AccountType = "other"
)

// AccountTypes lists every valid account type in display order.
var AccountTypes = []AccountType{
	AccountTypeChecking, AccountTypeSavings, AccountTypeCredit, AccountTypeInvestment,
	AccountTypeCash, AccountTypeLoan, AccountTypeOther,
}

// Account represents a financial account in the system.
// Balance is informational; transactions do not move it.
type Account struct {
	Base
	UserID   string          `gorm:"type:uuid;not null;uniqueIndex:idx_accounts_user_name" json:"user_id"`
	Name     string          `gorm:"size:100;not null;uniqueIndex:idx_accounts_user_name" json:"name"`
	Type     AccountType     `gorm:"size:20;not null" json:"account_type"`
	Balance  decimal.Decimal `gorm:"type:decimal(12,2);not null;default:0" json:"balance"`
	IsActive bool            `gorm:"not null" json:"is_active"`
}
