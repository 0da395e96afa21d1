package services

import (
	"math"
	"testing"
	"time"
)

func TestInstallmentDueDates(t *testing.T) {
	first := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)
	dates := installmentDueDates(first, 3)

	if len(dates) != 3 {
		t.Fatalf("installmentDueDates() returned %d dates; want 3", len(dates))
	}
	expected := []time.Time{
		first,
		time.Date(2026, 2, 15, 0, 0, 0, 0, time.UTC),
		time.Date(2026, 3, 15, 0, 0, 0, 0, time.UTC),
	}
	for i, want := range expected {
		if !dates[i].Equal(want) {
			t.Errorf("dates[%d] = %v; want %v", i, dates[i], want)
		}
	}
}

func TestSplitAmount(t *testing.T) {
	tests := []struct {
		name  string
		total float64
		count int
	}{
		{"even split", 300000, 3},
		{"uneven split", 100000, 3},
		{"single installment", 50000, 1},
		{"cents involved", 999.99, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			amounts := splitAmount(tt.total, tt.count)
			if len(amounts) != tt.count {
				t.Fatalf("splitAmount() returned %d parts; want %d", len(amounts), tt.count)
			}

			sum := 0.0
			for _, amount := range amounts {
				if amount <= 0 {
					t.Errorf("installment amount %v is not positive", amount)
				}
				sum += amount
			}
			if math.Abs(sum-tt.total) > 0.005 {
				t.Errorf("installments sum to %v; want %v", sum, tt.total)
			}

			// All but the last installment are equal.
			for i := 1; i < tt.count-1; i++ {
				if amounts[i] != amounts[0] {
					t.Errorf("amounts[%d] = %v; want %v", i, amounts[i], amounts[0])
				}
			}
		})
	}
}
