package models

import "testing"

func TestPriorityEscalate(t *testing.T) {
	tests := []struct {
		name     string
		priority Priority
		expected Priority
	}{
		{"low escalates to medium", PriorityLow, PriorityMedium},
		{"medium escalates to high", PriorityMedium, PriorityHigh},
		{"high escalates to critical", PriorityHigh, PriorityCritical},
		{"critical stays critical", PriorityCritical, PriorityCritical},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.priority.Escalate(); got != tt.expected {
				t.Errorf("Escalate(%s) = %s, want %s", tt.priority, got, tt.expected)
			}
		})
	}
}

func TestPriorityRankOrder(t *testing.T) {
	ordered := []Priority{PriorityCritical, PriorityHigh, PriorityMedium, PriorityLow}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %s to rank before %s", ordered[i-1], ordered[i])
		}
	}
}

func TestUrgencyRankOrder(t *testing.T) {
	ordered := []Urgency{UrgencyOverdue, UrgencyUrgent, UrgencyUpcoming, UrgencyScheduled}
	for i := 1; i < len(ordered); i++ {
		if ordered[i-1].Rank() >= ordered[i].Rank() {
			t.Errorf("expected %s to rank before %s", ordered[i-1], ordered[i])
		}
	}
}
