package rules

import (
	"context"
	"fmt"
	"time"
)

// specificWindow is the tolerance around a SPECIFIC rule's fire time.
const specificWindow = 60 * time.Second

// Markers is the cache surface holding per-rule execution state. It lives
// outside the process so policy bookkeeping survives restarts.
type Markers interface {
	RuleExecuted(ctx context.Context, ruleID string) (bool, error)
	MarkRuleExecuted(ctx context.Context, ruleID string) error
	LastExecution(ctx context.Context, ruleID string) (time.Time, error)
	SetLastExecution(ctx context.Context, ruleID string, t time.Time) error
}

// Deactivator flips a rule's active flag off in the persistent store after
// a terminal execution.
type Deactivator interface {
	Deactivate(ctx context.Context, id string) error
}

// Scheduler decides execution eligibility per rule policy and records
// executions. The eligibility check and the marker write are deliberately
// not atomic: concurrent evaluations of the same rule can both pass before
// either records, and the narrow double-fire window is accepted.
type Scheduler struct {
	markers Markers
	store   Deactivator

	// now is injected for tests.
	now func() time.Time
}

// NewScheduler creates a scheduler over the given marker cache and store.
func NewScheduler(markers Markers, store Deactivator) *Scheduler {
	return &Scheduler{markers: markers, store: store, now: time.Now}
}

// Eligible reports whether a rule may fire now under its policy.
func (s *Scheduler) Eligible(ctx context.Context, r *Rule) (bool, error) {
	switch r.Type {
	case PolicyOnce:
		executed, err := s.markers.RuleExecuted(ctx, r.ID)
		if err != nil {
			return false, fmt.Errorf("checking executed marker: %w", err)
		}
		return !executed, nil

	case PolicyRecurrent:
		if r.IntervalSeconds <= 0 {
			return true, nil
		}
		last, err := s.markers.LastExecution(ctx, r.ID)
		if err != nil {
			return false, fmt.Errorf("checking last execution: %w", err)
		}
		if last.IsZero() {
			return true, nil
		}
		elapsed := s.now().Sub(last)
		return elapsed >= time.Duration(r.IntervalSeconds)*time.Second, nil

	case PolicySpecific:
		if r.FireAt == nil {
			return false, nil
		}
		diff := s.now().Sub(*r.FireAt)
		if diff < 0 {
			diff = -diff
		}
		return diff <= specificWindow, nil

	default:
		return false, nil
	}
}

// RecordExecution applies a rule's post-execution side effect: ONCE and
// SPECIFIC set the executed marker and deactivate the rule (terminal);
// RECURRENT overwrites its last-execution timestamp.
func (s *Scheduler) RecordExecution(ctx context.Context, r *Rule) error {
	switch r.Type {
	case PolicyOnce, PolicySpecific:
		if err := s.markers.MarkRuleExecuted(ctx, r.ID); err != nil {
			return fmt.Errorf("marking rule %s executed: %w", r.ID, err)
		}
		if err := s.store.Deactivate(ctx, r.ID); err != nil {
			return fmt.Errorf("deactivating rule %s: %w", r.ID, err)
		}
		return nil

	case PolicyRecurrent:
		if err := s.markers.SetLastExecution(ctx, r.ID, s.now()); err != nil {
			return fmt.Errorf("recording execution of rule %s: %w", r.ID, err)
		}
		return nil

	default:
		return nil
	}
}
