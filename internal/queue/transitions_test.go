package queue

import (
	"testing"

	"shopqueue/queue-service/internal/models"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		from  string
		to    string
		valid bool
	}{
		{"waiting", "confirmed", true},
		{"waiting", "serving", true},
		{"waiting", "cancelled", true},
		{"waiting", "no_show", true},
		{"waiting", "completed", false},
		{"confirmed", "serving", true},
		{"confirmed", "cancelled", true},
		{"confirmed", "no_show", true},
		{"confirmed", "waiting", true},
		{"confirmed", "completed", false},
		{"serving", "completed", true},
		{"serving", "cancelled", true},
		{"serving", "no_show", true},
		{"serving", "waiting", false},
		{"serving", "confirmed", false},
		{"completed", "waiting", false},
		{"completed", "serving", false},
		{"cancelled", "waiting", false},
		{"cancelled", "serving", false},
		{"no_show", "waiting", false},
		{"no_show", "serving", false},
		{"unknown", "waiting", false},
		{"waiting", "unknown", false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.from, tt.to); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.from, tt.to, got, tt.valid)
		}
	}
}

func TestTerminalStatesRejectEverything(t *testing.T) {
	terminals := []string{models.StatusCompleted, models.StatusCancelled, models.StatusNoShow}
	all := []string{
		models.StatusWaiting, models.StatusConfirmed, models.StatusServing,
		models.StatusCompleted, models.StatusCancelled, models.StatusNoShow,
	}
	for _, from := range terminals {
		for _, to := range all {
			if ValidTransition(from, to) {
				t.Fatalf("terminal status %q must not transition to %q", from, to)
			}
		}
	}
}
