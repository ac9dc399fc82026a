package finance

import (
	"time"

	apperrors "prism/internal/errors"
	"prism/internal/models"

	"github.com/shopspring/decimal"
)

// Reconcile brings IsCompleted and CompletedAt in line with the amounts.
// Entering completion stamps CompletedAt with now unless it is already set;
// leaving completion clears it. It reports whether the state changed.
func Reconcile(g *models.Goal, now time.Time) bool {
	reached := IsGoalReached(g)
	switch {
	case reached && !g.IsCompleted:
		g.IsCompleted = true
		if g.CompletedAt == nil {
			at := now
			g.CompletedAt = &at
		}
		return true
	case !reached && g.IsCompleted:
		g.IsCompleted = false
		g.CompletedAt = nil
		return true
	}
	return false
}

// ApplyProgress sets the goal's current amount and reconciles its state.
func ApplyProgress(g *models.Goal, newCurrent decimal.Decimal, now time.Time) error {
	if newCurrent.IsNegative() {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Progress update would result in negative amount")
	}
	if newCurrent.GreaterThan(MaxAmount) {
		return apperrors.WithMessage(apperrors.ErrInvalidAmount, "Progress update would exceed maximum amount")
	}
	g.CurrentAmount = newCurrent
	Reconcile(g, now)
	return nil
}

// AddProgress applies a signed change to the goal's current amount.
func AddProgress(g *models.Goal, delta decimal.Decimal, now time.Time) error {
	if err := ValidateAmount("amount", delta); err != nil {
		return err
	}
	return ApplyProgress(g, g.CurrentAmount.Add(delta), now)
}
