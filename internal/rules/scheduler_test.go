package rules

import (
	"context"
	"testing"
	"time"
)

// ─── Mocks ───────────────────────────────────────────────────────────────────

type mockMarkers struct {
	executed map[string]bool
	last     map[string]time.Time
}

func newMockMarkers() *mockMarkers {
	return &mockMarkers{
		executed: make(map[string]bool),
		last:     make(map[string]time.Time),
	}
}

func (m *mockMarkers) RuleExecuted(_ context.Context, ruleID string) (bool, error) {
	return m.executed[ruleID], nil
}

func (m *mockMarkers) MarkRuleExecuted(_ context.Context, ruleID string) error {
	m.executed[ruleID] = true
	return nil
}

func (m *mockMarkers) LastExecution(_ context.Context, ruleID string) (time.Time, error) {
	return m.last[ruleID], nil
}

func (m *mockMarkers) SetLastExecution(_ context.Context, ruleID string, t time.Time) error {
	m.last[ruleID] = t
	return nil
}

type mockDeactivator struct {
	deactivated []string
}

func (m *mockDeactivator) Deactivate(_ context.Context, id string) error {
	m.deactivated = append(m.deactivated, id)
	return nil
}

// testScheduler returns a scheduler with a fixed clock.
func testScheduler(now time.Time) (*Scheduler, *mockMarkers, *mockDeactivator) {
	markers := newMockMarkers()
	store := &mockDeactivator{}
	s := NewScheduler(markers, store)
	s.now = func() time.Time { return now }
	return s, markers, store
}

var t0 = time.Date(2026, 1, 15, 10, 0, 0, 0, time.UTC)

// ─── ONCE ────────────────────────────────────────────────────────────────────

func TestEligible_Once(t *testing.T) {
	s, markers, _ := testScheduler(t0)
	ctx := context.Background()
	rule := &Rule{ID: "r-1", Type: PolicyOnce, Active: true}

	eligible, err := s.Eligible(ctx, rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if !eligible {
		t.Error("Eligible() = false for never-executed ONCE rule")
	}

	markers.executed["r-1"] = true

	eligible, err = s.Eligible(ctx, rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if eligible {
		t.Error("Eligible() = true for already-executed ONCE rule")
	}
}

func TestRecordExecution_OnceIsTerminal(t *testing.T) {
	s, markers, store := testScheduler(t0)
	ctx := context.Background()
	rule := &Rule{ID: "r-1", Type: PolicyOnce, Active: true}

	if err := s.RecordExecution(ctx, rule); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}

	if !markers.executed["r-1"] {
		t.Error("executed marker not set after ONCE execution")
	}
	if len(store.deactivated) != 1 || store.deactivated[0] != "r-1" {
		t.Errorf("deactivated = %v, want [r-1]", store.deactivated)
	}

	// Even if active were externally reset, the marker still blocks.
	eligible, _ := s.Eligible(ctx, rule)
	if eligible {
		t.Error("Eligible() = true after ONCE execution despite marker")
	}
}

// ─── RECURRENT ───────────────────────────────────────────────────────────────

func TestEligible_RecurrentInterval(t *testing.T) {
	ctx := context.Background()
	rule := &Rule{ID: "r-1", Type: PolicyRecurrent, Active: true, IntervalSeconds: 60}

	// Fired at t0; re-evaluate at t0+30s: not eligible.
	s, markers, _ := testScheduler(t0.Add(30 * time.Second))
	markers.last["r-1"] = t0

	eligible, err := s.Eligible(ctx, rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if eligible {
		t.Error("Eligible() = true at t+30s with 60s interval")
	}

	// Re-evaluate at t0+61s: eligible.
	s.now = func() time.Time { return t0.Add(61 * time.Second) }
	eligible, err = s.Eligible(ctx, rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if !eligible {
		t.Error("Eligible() = false at t+61s with 60s interval")
	}
}

func TestEligible_RecurrentNeverRun(t *testing.T) {
	s, _, _ := testScheduler(t0)
	rule := &Rule{ID: "r-1", Type: PolicyRecurrent, Active: true, IntervalSeconds: 3600}

	eligible, err := s.Eligible(context.Background(), rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if !eligible {
		t.Error("Eligible() = false for never-run RECURRENT rule")
	}
}

func TestEligible_RecurrentZeroInterval(t *testing.T) {
	s, markers, _ := testScheduler(t0)
	markers.last["r-1"] = t0.Add(-time.Second)
	rule := &Rule{ID: "r-1", Type: PolicyRecurrent, Active: true, IntervalSeconds: 0}

	eligible, err := s.Eligible(context.Background(), rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if !eligible {
		t.Error("Eligible() = false for zero-interval RECURRENT rule")
	}
}

func TestRecordExecution_RecurrentOverwrites(t *testing.T) {
	s, markers, store := testScheduler(t0)
	ctx := context.Background()
	rule := &Rule{ID: "r-1", Type: PolicyRecurrent, Active: true, IntervalSeconds: 60}

	if err := s.RecordExecution(ctx, rule); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if !markers.last["r-1"].Equal(t0) {
		t.Errorf("last execution = %v, want %v", markers.last["r-1"], t0)
	}
	if markers.executed["r-1"] {
		t.Error("executed marker set for RECURRENT rule")
	}
	if len(store.deactivated) != 0 {
		t.Errorf("RECURRENT execution deactivated rules: %v", store.deactivated)
	}

	later := t0.Add(2 * time.Minute)
	s.now = func() time.Time { return later }
	if err := s.RecordExecution(ctx, rule); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if !markers.last["r-1"].Equal(later) {
		t.Errorf("last execution = %v after second run, want %v", markers.last["r-1"], later)
	}
}

// ─── SPECIFIC ────────────────────────────────────────────────────────────────

func TestEligible_Specific(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name   string
		fireAt time.Time
		want   bool
	}{
		{"exactly now", t0, true},
		{"30s in the past", t0.Add(-30 * time.Second), true},
		{"30s in the future", t0.Add(30 * time.Second), true},
		{"window boundary", t0.Add(-60 * time.Second), true},
		{"two minutes late", t0.Add(-2 * time.Minute), false},
		{"two minutes early", t0.Add(2 * time.Minute), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, _, _ := testScheduler(t0)
			fireAt := tt.fireAt
			rule := &Rule{ID: "r-1", Type: PolicySpecific, Active: true, FireAt: &fireAt}

			eligible, err := s.Eligible(ctx, rule)
			if err != nil {
				t.Fatalf("Eligible() error = %v", err)
			}
			if eligible != tt.want {
				t.Errorf("Eligible() = %v, want %v", eligible, tt.want)
			}
		})
	}
}

func TestEligible_SpecificNoTimestamp(t *testing.T) {
	s, _, _ := testScheduler(t0)
	rule := &Rule{ID: "r-1", Type: PolicySpecific, Active: true}

	eligible, err := s.Eligible(context.Background(), rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if eligible {
		t.Error("Eligible() = true for SPECIFIC rule without fire time")
	}
}

func TestRecordExecution_SpecificIsTerminal(t *testing.T) {
	s, markers, store := testScheduler(t0)
	fireAt := t0
	rule := &Rule{ID: "r-1", Type: PolicySpecific, Active: true, FireAt: &fireAt}

	if err := s.RecordExecution(context.Background(), rule); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if !markers.executed["r-1"] {
		t.Error("executed marker not set after SPECIFIC execution")
	}
	if len(store.deactivated) != 1 {
		t.Errorf("deactivated = %v, want [r-1]", store.deactivated)
	}
}

// ─── Unknown policy ──────────────────────────────────────────────────────────

func TestEligible_UnknownType(t *testing.T) {
	s, _, _ := testScheduler(t0)
	rule := &Rule{ID: "r-1", Type: "CRON", Active: true}

	eligible, err := s.Eligible(context.Background(), rule)
	if err != nil {
		t.Fatalf("Eligible() error = %v", err)
	}
	if eligible {
		t.Error("Eligible() = true for unknown rule type")
	}
}

func TestRecordExecution_UnknownTypeNoop(t *testing.T) {
	s, markers, store := testScheduler(t0)
	rule := &Rule{ID: "r-1", Type: "CRON", Active: true}

	if err := s.RecordExecution(context.Background(), rule); err != nil {
		t.Fatalf("RecordExecution() error = %v", err)
	}
	if markers.executed["r-1"] || len(store.deactivated) != 0 {
		t.Error("unknown type execution had side effects")
	}
}
