package entity

import "testing"

func TestIsTerminal(t *testing.T) {
	terminal := []string{JobStatusCompleted, JobStatusFailed, JobStatusCancelled}
	for _, status := range terminal {
		if !IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = false, want true", status)
		}
	}

	live := []string{JobStatusQueued, JobStatusProcessing, ""}
	for _, status := range live {
		if IsTerminal(status) {
			t.Errorf("IsTerminal(%q) = true, want false", status)
		}
	}
}
