package batch

import (
	"errors"
	"testing"
)

func TestResult_Status(t *testing.T) {
	cause := errors.New("write failed")
	tests := []struct {
		name   string
		r      Result
		status ItemStatus
	}{
		{"ok", NewOK("a1"), StatusOK},
		{"error", NewError("a2", cause), StatusError},
		{"nil error counts as ok", NewError("a3", nil), StatusOK},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := tc.r.Status(); got != tc.status {
				t.Errorf("Status() = %q, want %q", got, tc.status)
			}
		})
	}

	r := NewError("a2", cause)
	if r.ID() != "a2" || !errors.Is(r.Err(), cause) {
		t.Errorf("result = %q, %v", r.ID(), r.Err())
	}
}

func TestTally(t *testing.T) {
	results := []Result{NewOK("a"), NewError("b", errors.New("x")), NewOK("c")}
	ok, failed := Tally(results)
	if ok != 2 || failed != 1 {
		t.Errorf("Tally = (%d, %d), want (2, 1)", ok, failed)
	}
	if ok, failed := Tally(nil); ok != 0 || failed != 0 {
		t.Errorf("Tally(nil) = (%d, %d)", ok, failed)
	}
}
