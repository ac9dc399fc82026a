package services

import (
	"prism/internal/models"

	"github.com/shopspring/decimal"
)

// Patch fields are nil when absent. For optional references an empty string
// clears the reference.

func clearable(v *string) *string {
	if *v == "" {
		return nil
	}
	s := *v
	return &s
}

// ProfilePatch is a partial update of the user's profile.
type ProfilePatch struct {
	Email     *string
	FirstName *string
	LastName  *string
}

// Apply merges the patch into u.
func (p ProfilePatch) Apply(u *models.User) {
	if p.Email != nil {
		u.Email = *p.Email
	}
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
}

// AccountPatch is a partial update of an account.
type AccountPatch struct {
	Name     *string
	Type     *models.AccountType
	Balance  *decimal.Decimal
	IsActive *bool
}

// Apply merges the patch into a.
func (p AccountPatch) Apply(a *models.Account) {
	if p.Name != nil {
		a.Name = *p.Name
	}
	if p.Type != nil {
		a.Type = *p.Type
	}
	if p.Balance != nil {
		a.Balance = *p.Balance
	}
	if p.IsActive != nil {
		a.IsActive = *p.IsActive
	}
}

// CategoryPatch is a partial update of a category.
type CategoryPatch struct {
	Name     *string
	Type     *models.CategoryType
	Color    *string
	ParentID *string
	IsActive *bool
}

// Apply merges the patch into c.
func (p CategoryPatch) Apply(c *models.Category) {
	if p.Name != nil {
		c.Name = *p.Name
	}
	if p.Type != nil {
		c.Type = *p.Type
	}
	if p.Color != nil {
		c.Color = *p.Color
	}
	if p.ParentID != nil {
		c.ParentID = clearable(p.ParentID)
		c.Parent = nil
	}
	if p.IsActive != nil {
		c.IsActive = *p.IsActive
	}
}

// TransactionPatch is a partial update of a transaction. An empty
// RecurringFrequency clears it.
type TransactionPatch struct {
	AccountID          *string
	CategoryID         *string
	Amount             *decimal.Decimal
	Description        *string
	Date               *models.Date
	Notes              *string
	TransferToID       *string
	IsRecurring        *bool
	RecurringFrequency *models.RecurringFrequency
}

// Apply merges the patch into t.
func (p TransactionPatch) Apply(t *models.Transaction) {
	if p.AccountID != nil {
		t.AccountID = *p.AccountID
		t.Account = nil
	}
	if p.CategoryID != nil {
		t.CategoryID = clearable(p.CategoryID)
		t.Category = nil
	}
	if p.Amount != nil {
		t.Amount = *p.Amount
	}
	if p.Description != nil {
		t.Description = *p.Description
	}
	if p.Date != nil {
		t.Date = *p.Date
	}
	if p.Notes != nil {
		t.Notes = *p.Notes
	}
	if p.TransferToID != nil {
		t.TransferToID = clearable(p.TransferToID)
		t.TransferTo = nil
	}
	if p.IsRecurring != nil {
		t.IsRecurring = *p.IsRecurring
	}
	if p.RecurringFrequency != nil {
		if *p.RecurringFrequency == "" {
			t.RecurringFrequency = nil
		} else {
			f := *p.RecurringFrequency
			t.RecurringFrequency = &f
		}
	}
}

// BudgetPatch is a partial update of a budget.
type BudgetPatch struct {
	CategoryID *string
	Name       *string
	Amount     *decimal.Decimal
	Period     *models.BudgetPeriod
	StartDate  *models.Date
	EndDate    *models.Date
	IsActive   *bool
}

// Apply merges the patch into b.
func (p BudgetPatch) Apply(b *models.Budget) {
	if p.CategoryID != nil {
		b.CategoryID = *p.CategoryID
		b.Category = nil
	}
	if p.Name != nil {
		b.Name = *p.Name
	}
	if p.Amount != nil {
		b.Amount = *p.Amount
	}
	if p.Period != nil {
		b.Period = *p.Period
	}
	if p.StartDate != nil {
		b.StartDate = *p.StartDate
	}
	if p.EndDate != nil {
		b.EndDate = *p.EndDate
	}
	if p.IsActive != nil {
		b.IsActive = *p.IsActive
	}
}

// GoalPatch is a partial update of a goal. A zero TargetDate clears it.
type GoalPatch struct {
	Name            *string
	Description     *string
	Type            *models.GoalType
	TargetAmount    *decimal.Decimal
	CurrentAmount   *decimal.Decimal
	TargetDate      *models.Date
	LinkedAccountID *string
	IsActive        *bool
}

// TouchesAmounts reports whether the patch writes either amount directly.
func (p GoalPatch) TouchesAmounts() bool {
	return p.TargetAmount != nil || p.CurrentAmount != nil
}

// Apply merges the patch into g.
func (p GoalPatch) Apply(g *models.Goal) {
	if p.Name != nil {
		g.Name = *p.Name
	}
	if p.Description != nil {
		g.Description = *p.Description
	}
	if p.Type != nil {
		g.Type = *p.Type
	}
	if p.TargetAmount != nil {
		g.TargetAmount = *p.TargetAmount
	}
	if p.CurrentAmount != nil {
		g.CurrentAmount = *p.CurrentAmount
	}
	if p.TargetDate != nil {
		if p.TargetDate.IsZero() {
			g.TargetDate = nil
		} else {
			d := *p.TargetDate
			g.TargetDate = &d
		}
	}
	if p.LinkedAccountID != nil {
		g.LinkedAccountID = clearable(p.LinkedAccountID)
		g.LinkedAccount = nil
	}
	if p.IsActive != nil {
		g.IsActive = *p.IsActive
	}
}
