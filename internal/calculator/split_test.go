package calculator

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/mmynk/settleup/internal/models"
)

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestComputeShares(t *testing.T) {
	tests := []struct {
		name         string
		splitType    models.SplitType
		amount       decimal.Decimal
		participants []models.Participant
		wantErr      error
		wantShares   []string // per-participant amounts, same order
	}{
		{
			name:      "equal split divides evenly",
			splitType: models.SplitEqual,
			amount:    d("90"),
			participants: []models.Participant{
				{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"},
			},
			wantShares: []string{"30", "30", "30"},
		},
		{
			name:      "equal split remainder lands on last participant",
			splitType: models.SplitEqual,
			amount:    d("100"),
			participants: []models.Participant{
				{UserID: "alice"}, {UserID: "bob"}, {UserID: "carol"},
			},
			wantShares: []string{"33.33", "33.33", "33.34"},
		},
		{
			name:      "equal split two ways of odd cent",
			splitType: models.SplitEqual,
			amount:    d("0.01"),
			participants: []models.Participant{
				{UserID: "alice"}, {UserID: "bob"},
			},
			wantShares: []string{"0.01", "0"},
		},
		{
			name:      "exact split accepted when amounts sum to total",
			splitType: models.SplitExact,
			amount:    d("50"),
			participants: []models.Participant{
				{UserID: "alice", Amount: d("20")},
				{UserID: "bob", Amount: d("30")},
			},
			wantShares: []string{"20", "30"},
		},
		{
			name:      "exact split rejected when amounts miss total",
			splitType: models.SplitExact,
			amount:    d("50"),
			participants: []models.Participant{
				{UserID: "alice", Amount: d("20")},
				{UserID: "bob", Amount: d("29")},
			},
			wantErr: models.ErrInvalidSplit,
		},
		{
			name:      "exact split tolerates a cent of drift",
			splitType: models.SplitExact,
			amount:    d("50"),
			participants: []models.Participant{
				{UserID: "alice", Amount: d("20.005")},
				{UserID: "bob", Amount: d("30")},
			},
			wantShares: []string{"20.005", "30"},
		},
		{
			name:      "percent split derives amounts",
			splitType: models.SplitPercent,
			amount:    d("200"),
			participants: []models.Participant{
				{UserID: "alice", Percentage: d("25")},
				{UserID: "bob", Percentage: d("75")},
			},
			wantShares: []string{"50", "150"},
		},
		{
			name:      "percent split rejected when percentages miss 100",
			splitType: models.SplitPercent,
			amount:    d("200"),
			participants: []models.Participant{
				{UserID: "alice", Percentage: d("50")},
				{UserID: "bob", Percentage: d("49")},
			},
			wantErr: models.ErrInvalidSplit,
		},
		{
			name:      "percent split remainder lands on last participant",
			splitType: models.SplitPercent,
			amount:    d("100"),
			participants: []models.Participant{
				{UserID: "alice", Percentage: d("33.335")},
				{UserID: "bob", Percentage: d("33.335")},
				{UserID: "carol", Percentage: d("33.33")},
			},
			// 33.34 + 33.34 + 33.33 = 100.01; drift within tolerance stays.
			wantShares: []string{"33.34", "33.34", "33.33"},
		},
		{
			name:         "no participants",
			splitType:    models.SplitEqual,
			amount:       d("10"),
			participants: nil,
			wantErr:      models.ErrNoParticipants,
		},
		{
			name:      "non-positive amount",
			splitType: models.SplitEqual,
			amount:    d("0"),
			participants: []models.Participant{
				{UserID: "alice"},
			},
			wantErr: models.ErrInvalidAmount,
		},
		{
			name:      "unknown split type",
			splitType: models.SplitType("RANDOM"),
			amount:    d("10"),
			participants: []models.Participant{
				{UserID: "alice"},
			},
			wantErr: models.ErrInvalidSplit,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shares, err := ComputeShares(tt.splitType, tt.amount, tt.participants)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ComputeShares() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ComputeShares() unexpected error: %v", err)
			}

			if len(shares) != len(tt.wantShares) {
				t.Fatalf("got %d shares, want %d", len(shares), len(tt.wantShares))
			}
			total := decimal.Zero
			for i, want := range tt.wantShares {
				if !shares[i].Amount.Equal(d(want)) {
					t.Errorf("share[%d] (%s) = %s, want %s", i, shares[i].UserID, shares[i].Amount, want)
				}
				total = total.Add(shares[i].Amount)
			}
			if tt.splitType == models.SplitEqual && !total.Equal(tt.amount) {
				t.Errorf("shares sum to %s, want %s", total, tt.amount)
			}
		})
	}
}

func TestComputeSharesDoesNotMutateInput(t *testing.T) {
	participants := []models.Participant{{UserID: "alice"}, {UserID: "bob"}}

	if _, err := ComputeShares(models.SplitEqual, d("10"), participants); err != nil {
		t.Fatalf("ComputeShares() unexpected error: %v", err)
	}
	for i, p := range participants {
		if !p.Amount.IsZero() {
			t.Errorf("input participant %d mutated: amount = %s", i, p.Amount)
		}
	}
}
