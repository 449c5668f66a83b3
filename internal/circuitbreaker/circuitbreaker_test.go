package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"

	"github.com/fd1az/dex-scanner/internal/apperror"
)

func TestCircuitBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("venue:orca")
	cfg.ConsecutiveFailures = 2
	cfg.Timeout = time.Hour

	var transitions []gobreaker.State
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		transitions = append(transitions, to)
	}
	cb := New[int](cfg)

	errDown := errors.New("down")
	calls := 0
	fail := func() (int, error) {
		calls++
		return 0, errDown
	}

	for i := 0; i < 2; i++ {
		if _, err := cb.Execute(fail); !errors.Is(err, errDown) {
			t.Fatalf("Execute() error = %v, want %v", err, errDown)
		}
	}

	if cb.State() != gobreaker.StateOpen {
		t.Fatalf("State() = %v, want open", cb.State())
	}

	_, err := cb.Execute(fail)
	if !apperror.HasCode(err, apperror.CodeCircuitOpen) {
		t.Errorf("Execute() on open breaker error = %v, want CIRCUIT_OPEN", err)
	}
	if calls != 2 {
		t.Errorf("fn calls = %d, want 2 (open breaker must not call fn)", calls)
	}
	if len(transitions) != 1 || transitions[0] != gobreaker.StateOpen {
		t.Errorf("transitions = %v, want [open]", transitions)
	}
}

func TestCircuitBreaker_SuccessPassesThrough(t *testing.T) {
	cb := New[string](DefaultConfig("ok"))
	got, err := cb.Execute(func() (string, error) { return "pairs", nil })
	if err != nil || got != "pairs" {
		t.Errorf("Execute() = %q, %v", got, err)
	}
	if cb.Name() != "ok" {
		t.Errorf("Name() = %q", cb.Name())
	}
}
