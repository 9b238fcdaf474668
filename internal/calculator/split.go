package calculator

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

var (
	hundred   = decimal.NewFromInt(100)
	tolerance = decimal.New(1, -2) // 0.01
)

// ComputeShares validates a split and returns participants with their Amount
// fields filled in. The input slice is not modified.
//
// Rules per split type:
//   - EQUAL: amount divided evenly, each share rounded to 2 decimals, the
//     rounding remainder absorbed by the last participant so shares sum
//     exactly to the expense amount.
//   - EXACT: caller-supplied amounts must sum to the expense amount within
//     0.01.
//   - PERCENT: caller-supplied percentages must sum to 100 within 0.01;
//     shares are derived and the remainder again lands on the last
//     participant.
func ComputeShares(splitType models.SplitType, amount decimal.Decimal, participants []models.Participant) ([]models.Participant, error) {
	if len(participants) == 0 {
		return nil, models.ErrNoParticipants
	}
	if !amount.IsPositive() {
		return nil, models.ErrInvalidAmount
	}

	shares := make([]models.Participant, len(participants))
	copy(shares, participants)
	last := len(shares) - 1

	switch splitType {
	case models.SplitEqual:
		each := amount.Div(decimal.NewFromInt(int64(len(shares)))).Round(2)
		total := decimal.Zero
		for i := range shares {
			shares[i].Amount = each
			total = total.Add(each)
		}
		// The rounding remainder lands on the last participant.
		shares[last].Amount = shares[last].Amount.Add(amount.Sub(total))

	case models.SplitExact:
		total := decimal.Zero
		for _, p := range shares {
			total = total.Add(p.Amount)
		}
		if total.Sub(amount).Abs().GreaterThan(tolerance) {
			return nil, fmt.Errorf("%w: participant amounts (%s) must equal expense amount (%s)",
				models.ErrInvalidSplit, total, amount)
		}

	case models.SplitPercent:
		totalPercent := decimal.Zero
		total := decimal.Zero
		for i := range shares {
			totalPercent = totalPercent.Add(shares[i].Percentage)
			shares[i].Amount = amount.Mul(shares[i].Percentage).Div(hundred).Round(2)
			total = total.Add(shares[i].Amount)
		}
		if totalPercent.Sub(hundred).Abs().GreaterThan(tolerance) {
			return nil, fmt.Errorf("%w: percentages (%s%%) must equal 100%%",
				models.ErrInvalidSplit, totalPercent)
		}
		if diff := amount.Sub(total); diff.Abs().GreaterThan(tolerance) {
			shares[last].Amount = shares[last].Amount.Add(diff)
		}

	default:
		return nil, fmt.Errorf("%w: unknown split type %q", models.ErrInvalidSplit, splitType)
	}

	return shares, nil
}
