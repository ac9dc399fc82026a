package finance

import (
	"prism/internal/models"

	"github.com/shopspring/decimal"
)

// ExpenseSource returns the amounts of a user's transactions in a category
// between two dates inclusive. Only negative amounts count toward spending.
type ExpenseSource interface {
	CategoryAmounts(ownerID, categoryID string, start, end models.Date) ([]decimal.Decimal, error)
}

// BudgetStats are the derived values shown alongside a budget.
type BudgetStats struct {
	SpentAmount     decimal.Decimal `json:"spent_amount"`
	RemainingAmount decimal.Decimal `json:"remaining_amount"`
	PercentageUsed  float64         `json:"percentage_used"`
	IsOverBudget    bool            `json:"is_over_budget"`
}

// SpentAmount sums the absolute values of the expenses that fall inside b.
func SpentAmount(src ExpenseSource, b *models.Budget) (decimal.Decimal, error) {
	amounts, err := src.CategoryAmounts(b.UserID, b.CategoryID, b.StartDate, b.EndDate)
	if err != nil {
		return decimal.Zero, err
	}
	spent := decimal.Zero
	for _, a := range amounts {
		if a.IsNegative() {
			spent = spent.Add(a.Neg())
		}
	}
	return spent, nil
}

// BudgetProgress derives remaining, percentage and over-budget from spent.
func BudgetProgress(amount, spent decimal.Decimal) BudgetStats {
	remaining := amount.Sub(spent)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return BudgetStats{
		SpentAmount:     spent,
		RemainingAmount: remaining,
		PercentageUsed:  cappedPercentage(spent, amount),
		IsOverBudget:    spent.GreaterThan(amount),
	}
}

// GoalStats are the derived values shown alongside a goal.
type GoalStats struct {
	RemainingAmount    decimal.Decimal `json:"remaining_amount"`
	ProgressPercentage float64         `json:"progress_percentage"`
	IsGoalReached      bool            `json:"is_goal_reached"`
}

// GoalProgress derives the goal's remaining amount and progress.
func GoalProgress(g *models.Goal) GoalStats {
	remaining := g.TargetAmount.Sub(g.CurrentAmount)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}
	return GoalStats{
		RemainingAmount:    remaining,
		ProgressPercentage: cappedPercentage(g.CurrentAmount, g.TargetAmount),
		IsGoalReached:      IsGoalReached(g),
	}
}

// IsGoalReached reports current >= target.
func IsGoalReached(g *models.Goal) bool {
	return g.CurrentAmount.GreaterThanOrEqual(g.TargetAmount)
}

// NearTargetThreshold is the progress percentage at which an unfinished
// goal counts as near its target.
const NearTargetThreshold = 80

// NearTarget reports whether an active, unfinished goal has reached the
// near-target threshold. The ratio is compared unrounded.
func NearTarget(g *models.Goal) bool {
	if !g.IsActive || g.IsCompleted || !g.TargetAmount.IsPositive() {
		return false
	}
	threshold := g.TargetAmount.Mul(decimal.NewFromInt(NearTargetThreshold))
	return g.CurrentAmount.Mul(hundred).GreaterThanOrEqual(threshold)
}

// TransactionSummary totals a set of transactions.
type TransactionSummary struct {
	TotalTransactions    int             `json:"total_transactions"`
	TotalIncome          decimal.Decimal `json:"total_income"`
	TotalExpenses        decimal.Decimal `json:"total_expenses"`
	NetIncome            decimal.Decimal `json:"net_income"`
	IncomeTransactions   int             `json:"income_transactions"`
	ExpenseTransactions  int             `json:"expense_transactions"`
	TransferTransactions int             `json:"transfer_transactions"`
}

// SummarizeTransactions totals income and expenses in one pass. Transfers
// are counted separately but still contribute their signed amount.
func SummarizeTransactions(txs []models.Transaction) TransactionSummary {
	s := TransactionSummary{
		TotalTransactions: len(txs),
		TotalIncome:       decimal.Zero,
		TotalExpenses:     decimal.Zero,
	}
	for i := range txs {
		t := &txs[i]
		switch {
		case t.IsIncome():
			s.TotalIncome = s.TotalIncome.Add(t.Amount)
			s.IncomeTransactions++
		case t.IsExpense():
			s.TotalExpenses = s.TotalExpenses.Add(t.Amount.Neg())
			s.ExpenseTransactions++
		}
		if t.IsTransfer() {
			s.TransferTransactions++
		}
	}
	s.NetIncome = s.TotalIncome.Sub(s.TotalExpenses)
	return s
}

// AccountTypeTotals is one bucket of AccountSummary.ByType.
type AccountTypeTotals struct {
	Count   int             `json:"count"`
	Balance decimal.Decimal `json:"balance"`
}

// AccountSummary totals a user's accounts.
type AccountSummary struct {
	TotalAccounts  int                                      `json:"total_accounts"`
	TotalBalance   decimal.Decimal                          `json:"total_balance"`
	ActiveAccounts int                                      `json:"active_accounts"`
	ByType         map[models.AccountType]AccountTypeTotals `json:"by_type"`
}

// SummarizeAccounts groups accounts by type in a single pass.
func SummarizeAccounts(accounts []models.Account) AccountSummary {
	s := AccountSummary{
		TotalAccounts: len(accounts),
		TotalBalance:  decimal.Zero,
		ByType:        map[models.AccountType]AccountTypeTotals{},
	}
	for _, a := range accounts {
		s.TotalBalance = s.TotalBalance.Add(a.Balance)
		if a.IsActive {
			s.ActiveAccounts++
		}
		bucket, ok := s.ByType[a.Type]
		if !ok {
			bucket.Balance = decimal.Zero
		}
		bucket.Count++
		bucket.Balance = bucket.Balance.Add(a.Balance)
		s.ByType[a.Type] = bucket
	}
	return s
}

// BudgetSummary totals a set of budgets with their spending.
type BudgetSummary struct {
	TotalBudgets      int             `json:"total_budgets"`
	TotalBudgetAmount decimal.Decimal `json:"total_budget_amount"`
	TotalSpent        decimal.Decimal `json:"total_spent"`
	TotalRemaining    decimal.Decimal `json:"total_remaining"`
	OverBudgetCount   int             `json:"over_budget_count"`
	OnTrackCount      int             `json:"on_track_count"`
}

// BudgetLine pairs a budget amount with what was spent against it.
type BudgetLine struct {
	Amount decimal.Decimal
	Spent  decimal.Decimal
}

// SummarizeBudgets totals budget lines. TotalRemaining is amount minus spent
// and goes negative when the set as a whole is overspent.
func SummarizeBudgets(lines []BudgetLine) BudgetSummary {
	s := BudgetSummary{
		TotalBudgets:      len(lines),
		TotalBudgetAmount: decimal.Zero,
		TotalSpent:        decimal.Zero,
	}
	for _, l := range lines {
		s.TotalBudgetAmount = s.TotalBudgetAmount.Add(l.Amount)
		s.TotalSpent = s.TotalSpent.Add(l.Spent)
		if l.Spent.GreaterThan(l.Amount) {
			s.OverBudgetCount++
		}
	}
	s.TotalRemaining = s.TotalBudgetAmount.Sub(s.TotalSpent)
	s.OnTrackCount = s.TotalBudgets - s.OverBudgetCount
	return s
}

// GoalTypeTotals is one bucket of GoalSummary.ByType.
type GoalTypeTotals struct {
	Count        int             `json:"count"`
	TargetAmount decimal.Decimal `json:"target_amount"`
	SavedAmount  decimal.Decimal `json:"saved_amount"`
}

// GoalSummary totals a user's goals.
type GoalSummary struct {
	TotalGoals           int                                `json:"total_goals"`
	ActiveGoals          int                                `json:"active_goals"`
	CompletedGoals       int                                `json:"completed_goals"`
	TotalTargetAmount    decimal.Decimal                    `json:"total_target_amount"`
	TotalSavedAmount     decimal.Decimal                    `json:"total_saved_amount"`
	TotalRemainingAmount decimal.Decimal                    `json:"total_remaining_amount"`
	AverageProgress      float64                            `json:"average_progress"`
	ByType               map[models.GoalType]GoalTypeTotals `json:"by_type"`
}

// SummarizeGoals totals goals in a single pass. Target and saved totals
// cover active goals only; ByType covers every goal.
func SummarizeGoals(goals []models.Goal) GoalSummary {
	s := GoalSummary{
		TotalGoals:        len(goals),
		TotalTargetAmount: decimal.Zero,
		TotalSavedAmount:  decimal.Zero,
		ByType:            map[models.GoalType]GoalTypeTotals{},
	}
	for _, g := range goals {
		if g.IsActive && !g.IsCompleted {
			s.ActiveGoals++
		}
		if g.IsCompleted {
			s.CompletedGoals++
		}
		if g.IsActive {
			s.TotalTargetAmount = s.TotalTargetAmount.Add(g.TargetAmount)
			s.TotalSavedAmount = s.TotalSavedAmount.Add(g.CurrentAmount)
		}
		bucket, ok := s.ByType[g.Type]
		if !ok {
			bucket.TargetAmount = decimal.Zero
			bucket.SavedAmount = decimal.Zero
		}
		bucket.Count++
		bucket.TargetAmount = bucket.TargetAmount.Add(g.TargetAmount)
		bucket.SavedAmount = bucket.SavedAmount.Add(g.CurrentAmount)
		s.ByType[g.Type] = bucket
	}
	s.TotalRemainingAmount = s.TotalTargetAmount.Sub(s.TotalSavedAmount)
	if s.TotalTargetAmount.IsPositive() {
		s.AverageProgress = Percentage(s.TotalSavedAmount, s.TotalTargetAmount)
	}
	return s
}
